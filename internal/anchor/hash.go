package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"bhulekh/internal/transfer/models"
)

// HashScheme versions the canonical hash composition. Verifiers use it to
// pick the right recomputation; bump it if the field set ever changes.
const HashScheme = "bhulekh/v1"

// CanonicalHash computes the single canonical digest of a record's anchored
// state. One scheme serves every call site so property-level and
// transfer-level anchors can never drift apart.
//
// The digest covers the fields that change on every accepted write: id,
// stage, status, version, and the approval count, plus any extra fields the
// milestone contributes, encoded as sorted key=value lines.
func CanonicalHash(record *models.TransferRecord, extra map[string]string) string {
	fields := map[string]string{
		"scheme":       HashScheme,
		"transfer_id":  string(record.TransferID),
		"property_ref": string(record.PropertyRef),
		"stage":        string(record.CurrentStage),
		"status":       string(record.Status),
		"version":      fmt.Sprintf("%d", record.Version),
		"approvals":    fmt.Sprintf("%d", len(record.Approvals)),
	}
	for k, v := range extra {
		fields["x:"+k] = v
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
