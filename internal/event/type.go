package event

// DigestMessage is the payload published for each per-user digest.
// Email is carried for the delivery worker; subject and body are already
// fully composed.
type DigestMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Email   string `json:"email,omitempty"`
}

// DefaultDigestQueue is the queue digests are published to unless the
// configuration overrides it.
const DefaultDigestQueue = "harvest_digest_events"
