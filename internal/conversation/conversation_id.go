package conversation

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// conversationIDNamespace is hashed together with the phone suffix so the
// derived ids cannot collide with ids minted by other channels.
const conversationIDNamespace = "whatsapp-conversation:"

// DeriveConversationID maps a canonical phone suffix to a stable UUID. The id
// is content-addressed: the same phone always yields the same conversation
// with no lookup table in between. This is an address, not a security token —
// the hash only needs collision resistance.
func DeriveConversationID(phoneSuffix string) uuid.UUID {
	sum := sha256.Sum256([]byte(conversationIDNamespace + phoneSuffix))

	var id uuid.UUID
	copy(id[:], sum[:16])
	// Force version 4 / RFC 4122 variant nibbles so the value is a
	// structurally valid UUID.
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}
