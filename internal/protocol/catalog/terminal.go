package catalog

import "github.com/danmuck/poslink/internal/protocol"

// Terminal opcodes, host to display.
const (
	TermFlush protocol.Opcode = iota + 1
	TermUpdateAll
	TermUpdateArea
	TermBlankPage
	TermBackground
	TermTitleBar
	TermTextL
	TermTextC
	TermTextR
	TermZoneTextL
	TermZoneTextC
	TermZoneTextR
	TermZone
	TermTexture
	TermShadow
	TermRectangle
	TermSolidRectangle
	TermHLine
	TermVLine
	TermFrame
	TermFilledFrame
	TermStatusBar
	TermEditCursor
	TermCursor
	TermSetClip
	TermBell
	TermSetMessage
	TermClearMessage
	TermBlankScreen
	TermSelectOff
	TermSelectUpdate
	TermTranslations
	TermListStart
	TermListItem
	TermListEnd
	TermNewWindow
	TermShowWindow
	TermKillWindow
	TermTargetWindow
	TermKillAll
	TermIconify
	TermSetID
	TermConnTimeout
	TermDialogOpen
	TermDialogButton
	TermDialogClose
	TermKeyboardOpen
	TermKeyboardClose
	TermFontLoad
	TermSetAntialias
	TermSetEmbossed
	TermSetDropShadow
	TermSetShadowOffset
	TermSetShadowBlur
	TermSetTextures
	TermSetIconify
	TermSetClock
	TermSetScreensaver
	TermSetScale
	TermSetLanguage
	TermCalibrateTS
	TermUserInput
	TermReloadFonts
	TermSetTime
	TermPoleDisplay
	TermImage
	TermButton
	TermProgress
	TermCCAuth
	TermCCPreauth
	TermCCFinalAuth
	TermCCVoid
	TermCCVoidCancel
	TermCCRefund
	TermCCRefundCancel
	TermCCSettle
	TermCCInit
	TermCCTotals
	TermCCDetails
	TermCCClearSAF
	TermCCSAFDetails
	TermCCReadCard
	TermSound
	TermMoveWindow
	TermRaiseWindow
	TermFlash
	TermSetColor
	TermSetPage
	TermScroll
	TermDie
)

// Terminal carries rendering, window, dialog, settings and card-relay requests.
var Terminal = newChannel("terminal",
	entry(TermFlush, "TERM_FLUSH"),
	entry(TermUpdateAll, "UPDATEALL"),
	entry(TermUpdateArea, "UPDATEAREA", u16, u16, u16, u16),
	entry(TermBlankPage, "BLANKPAGE", u8, u8, u8, u8, u16, str),
	entry(TermBackground, "BACKGROUND"),
	entry(TermTitleBar, "TITLEBAR", str),
	entry(TermTextL, "TEXTL", str, u16, u16, u8, u8, u16),
	entry(TermTextC, "TEXTC", str, u16, u16, u8, u8, u16),
	entry(TermTextR, "TEXTR", str, u16, u16, u8, u8, u16),
	entry(TermZoneTextL, "ZONETEXTL", str, u16, u16, u16, u16, u8, u8),
	entry(TermZoneTextC, "ZONETEXTC", str, u16, u16, u16, u16, u8, u8),
	entry(TermZoneTextR, "ZONETEXTR", str, u16, u16, u16, u16, u8, u8),
	entry(TermZone, "ZONE", u16, u16, u16, u16, u8, u8, u8),
	entry(TermTexture, "TEXTURE", u16, u16, u16, u16, u8),
	entry(TermShadow, "SHADOW", u16, u16, u16, u16, u8, u8),
	entry(TermRectangle, "RECTANGLE", u16, u16, u16, u16, u8),
	entry(TermSolidRectangle, "SOLID_RECTANGLE", u16, u16, u16, u16, u8),
	entry(TermHLine, "HLINE", u16, u16, u16, u8, u8),
	entry(TermVLine, "VLINE", u16, u16, u16, u8, u8),
	entry(TermFrame, "FRAME", u16, u16, u16, u16, u8, u8),
	entry(TermFilledFrame, "FILLEDFRAME", u16, u16, u16, u16, u8, u8, u8),
	entry(TermStatusBar, "STATUSBAR", u16, u16, u16, u16, u8, str, u8, u8),
	entry(TermEditCursor, "EDITCURSOR", u16, u16, u16, u16),
	entry(TermCursor, "CURSOR", u16),
	entry(TermSetClip, "SETCLIP", u16, u16, u16, u16),
	entry(TermBell, "BELL", long),
	entry(TermSetMessage, "SETMESSAGE", str),
	entry(TermClearMessage, "CLEARMESSAGE"),
	entry(TermBlankScreen, "BLANKSCREEN"),
	entry(TermSelectOff, "SELECTOFF"),
	entry(TermSelectUpdate, "SELECTUPDATE", u16, u16),
	entry(TermTranslations, "TRANSLATIONS", str, str),
	entry(TermListStart, "LISTSTART"),
	entry(TermListItem, "LISTITEM", str),
	entry(TermListEnd, "LISTEND"),
	entry(TermNewWindow, "NEWWINDOW", u16, u16, u16, u16, u16, u8, str),
	entry(TermShowWindow, "SHOWWINDOW", u16),
	entry(TermKillWindow, "KILLWINDOW", u16),
	entry(TermTargetWindow, "TARGETWINDOW", u16),
	entry(TermKillAll, "KILLALL"),
	entry(TermIconify, "ICONIFY"),
	entry(TermSetID, "SETID", str),
	entry(TermConnTimeout, "CONNTIMEOUT", u16),
	entry(TermDialogOpen, "DIALOG_OPEN", u16, u8, str, str),
	entry(TermDialogButton, "DIALOG_BUTTON", u16, u16, str),
	entry(TermDialogClose, "DIALOG_CLOSE", u16),
	entry(TermKeyboardOpen, "KEYBOARD_OPEN", u8, str, u16),
	entry(TermKeyboardClose, "KEYBOARD_CLOSE"),
	entry(TermFontLoad, "FONT_LOAD", u8, str),
	entry(TermSetAntialias, "SET_ANTIALIAS", u8),
	entry(TermSetEmbossed, "SET_EMBOSSED", u8),
	entry(TermSetDropShadow, "SET_DROP_SHADOW", u8),
	entry(TermSetShadowOffset, "SET_SHADOW_OFFSET", u16, u16),
	entry(TermSetShadowBlur, "SET_SHADOW_BLUR", u8),
	entry(TermSetTextures, "SET_TEXTURES", u8),
	entry(TermSetIconify, "SET_ICONIFY", u8),
	entry(TermSetClock, "SET_CLOCK", u8),
	entry(TermSetScreensaver, "SET_SCREENSAVER", u16),
	entry(TermSetScale, "SET_SCALE", fixed),
	entry(TermSetLanguage, "SET_LANGUAGE", str),
	entry(TermCalibrateTS, "CALIBRATE_TS"),
	entry(TermUserInput, "USERINPUT"),
	entry(TermReloadFonts, "RELOAD_FONTS"),
	entry(TermSetTime, "SET_TIME", llong),
	entry(TermPoleDisplay, "POLE_DISPLAY", str, str),
	entry(TermImage, "IMAGE", u16, u16, u16, u16, u32),
	entry(TermButton, "BUTTON", u16, u16, u16, u16, u32, str, u8),
	entry(TermProgress, "PROGRESS", u16, u16, u16, u16, fixed),
	entry(TermCCAuth, "CC_AUTH", u32, fixed, fixed, u8),
	entry(TermCCPreauth, "CC_PREAUTH", u32, fixed, u8),
	entry(TermCCFinalAuth, "CC_FINALAUTH", u32, fixed, fixed, str),
	entry(TermCCVoid, "CC_VOID", u32, llong, str),
	entry(TermCCVoidCancel, "CC_VOID_CANCEL", u32, llong),
	entry(TermCCRefund, "CC_REFUND", u32, fixed, u8),
	entry(TermCCRefundCancel, "CC_REFUND_CANCEL", u32, llong),
	entry(TermCCSettle, "CC_SETTLE", u32),
	entry(TermCCInit, "CC_INIT"),
	entry(TermCCTotals, "CC_TOTALS"),
	entry(TermCCDetails, "CC_DETAILS"),
	entry(TermCCClearSAF, "CC_CLEARSAF"),
	entry(TermCCSAFDetails, "CC_SAFDETAILS"),
	entry(TermCCReadCard, "CC_READ_CARD", u16),
	entry(TermSound, "SOUND", u16),
	entry(TermMoveWindow, "MOVE_WINDOW", u16, u16, u16),
	entry(TermRaiseWindow, "RAISE_WINDOW", u16),
	entry(TermFlash, "FLASH", u16, u16, u16, u16, u8),
	entry(TermSetColor, "SET_COLOR", u8, u8, u8, u8),
	entry(TermSetPage, "SET_PAGE", long, u8),
	entry(TermScroll, "SCROLL", u16, u16, u16, u16, long),
	entry(TermDie, "TERM_DIE"),
)
