package domain

import "time"

// Message is one recruitment mail as fetched from the source folder.
type Message struct {
	UID       uint32 // 0 when the source has no UIDs (mbox)
	MessageID string
	From      string
	Subject   string
	Date      time.Time

	// Body is decoded plain text.
	Body string
}

// UIDs returns the non-zero UIDs of msgs in order.
func UIDs(msgs []Message) []uint32 {
	out := make([]uint32, 0, len(msgs))
	for _, m := range msgs {
		if m.UID != 0 {
			out = append(out, m.UID)
		}
	}
	return out
}
