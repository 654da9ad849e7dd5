package status

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const subjectPrefix = "poslink.link."

// Subject is the NATS subject status changes of link id are published on.
func Subject(id string) string {
	return subjectPrefix + id + ".status"
}

// Publisher is the part of *nats.Conn the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// StatusMessage is the payload published for every flip.
type StatusMessage struct {
	Host   string    `json:"host"`
	Link   string    `json:"link"`
	Online bool      `json:"online"`
	At     time.Time `json:"at"`
}

// NATSNotifier publishes status flips. Publish only buffers in the client,
// so it is safe to call from the reactor.
type NATSNotifier struct {
	pub  Publisher
	host string
	now  func() time.Time
}

func NewNATSNotifier(pub Publisher, host string) *NATSNotifier {
	return &NATSNotifier{pub: pub, host: host, now: time.Now}
}

func (n *NATSNotifier) NotifyLinkStatusChanged(id string, online bool) {
	data, err := json.Marshal(StatusMessage{Host: n.host, Link: id, Online: online, At: n.now().UTC()})
	if err != nil {
		log.Warn().Err(err).Str("link", id).Msg("status encode failed")
		return
	}
	if err := n.pub.Publish(Subject(id), data); err != nil {
		log.Warn().Err(err).Str("link", id).Msg("status publish failed")
	}
}

// ConnectNATS dials the status bus. The client keeps reconnecting in the
// background if the server goes away.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
	)
}
