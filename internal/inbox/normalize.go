package inbox

import (
	"encoding/json"
	"strings"

	"github.com/fieldline/comms-backend/internal/models"
)

// normalizeToAddress collapses a JSON-array-encoded to_address down to
// its first element. Anything that doesn't parse as a string array is
// returned unchanged; this function never fails.
func normalizeToAddress(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return raw
	}

	var addresses []string
	if err := json.Unmarshal([]byte(trimmed), &addresses); err != nil {
		return raw
	}
	if len(addresses) == 0 {
		return raw
	}
	return addresses[0]
}

// normalizeRecords applies field normalization in place. Nullable fields
// stay nullable; only derived shapes are fixed up.
func normalizeRecords(comms []models.Communication) {
	for i := range comms {
		comms[i].ToAddress = normalizeToAddress(comms[i].ToAddress)
	}
}
