package catalog

import "github.com/danmuck/poslink/internal/protocol"

// Input opcodes, display to host.
const (
	ServerError protocol.Opcode = iota + 1
	ServerTermInfo
	ServerTouch
	ServerKey
	ServerMouse
	ServerPageData
	ServerZoneData
	ServerZoneChanges
	ServerKillPage
	ServerKillZone
	ServerKillZones
	ServerTranslate
	ServerListSelect
	ServerSwipe
	ServerButtonPress
	ServerItemSelect
	ServerTextEntry
	ServerDialogResult
	ServerDefPage
	ServerShutdown
	ServerCCProcessed
	ServerCCSettled
	ServerCCInit
	ServerCCTotals
	ServerCCDetails
	ServerCCSAFCleared
	ServerCCSAFDetails
	ServerCCSettleFailed
	ServerCCSAFClearFailed
)

// Input carries touch, key and edit events plus card processor results.
var Input = newChannel("input",
	entry(ServerError, "SERVER_ERROR", str),
	entry(ServerTermInfo, "SERVER_TERMINFO", str, u16, u16, u8),
	entry(ServerTouch, "SERVER_TOUCH", u16, u16),
	entry(ServerKey, "SERVER_KEY", u16, u32),
	entry(ServerMouse, "SERVER_MOUSE", u8, u16, u16),
	entry(ServerPageData, "SERVER_PAGEDATA", long, u8, str, u8),
	entry(ServerZoneData, "SERVER_ZONEDATA", u32, u16, u16, u16, u16, str),
	entry(ServerZoneChanges, "SERVER_ZONECHANGES", u32, u16, u16, u16, u16),
	entry(ServerKillPage, "SERVER_KILLPAGE", long),
	entry(ServerKillZone, "SERVER_KILLZONE", u32),
	entry(ServerKillZones, "SERVER_KILLZONES"),
	entry(ServerTranslate, "SERVER_TRANSLATE", str, str),
	entry(ServerListSelect, "SERVER_LISTSELECT", u16),
	entry(ServerSwipe, "SERVER_SWIPE", str),
	entry(ServerButtonPress, "SERVER_BUTTONPRESS", u32, u8),
	entry(ServerItemSelect, "SERVER_ITEMSELECT", u32),
	entry(ServerTextEntry, "SERVER_TEXTENTRY", str),
	entry(ServerDialogResult, "SERVER_DIALOG_RESULT", u16, u16),
	entry(ServerDefPage, "SERVER_DEFPAGE", long),
	entry(ServerShutdown, "SERVER_SHUTDOWN"),
	entry(ServerCCProcessed, "SERVER_CC_PROCESSED", u32, u8, fixed, llong, str),
	entry(ServerCCSettled, "SERVER_CC_SETTLED", u32, u8, str),
	entry(ServerCCInit, "SERVER_CC_INIT", u8, str),
	entry(ServerCCTotals, "SERVER_CC_TOTALS", u32, fixed),
	entry(ServerCCDetails, "SERVER_CC_DETAILS", str),
	entry(ServerCCSAFCleared, "SERVER_CC_SAFCLEARED", u32),
	entry(ServerCCSAFDetails, "SERVER_CC_SAFDETAILS", str),
	entry(ServerCCSettleFailed, "SERVER_CC_SETTLEFAILED", str),
	entry(ServerCCSAFClearFailed, "SERVER_CC_SAFCLEARFAILED", str),
)
