package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// Fingerprint computes the deterministic digest identifying a logically
// identical request: provider, model, prompt text, and decoding parameters.
// Any parameter change changes the digest. It is both the cache key and the
// dedup key.
func Fingerprint(req models.NormalizedRequest) string {
	h := sha256.New()
	params, _ := json.Marshal(req.Params)
	fmt.Fprintf(h, "%s:%s:%s:%s:%s", req.Provider, req.Model, req.Prompt, req.SystemPrompt, params)
	return hex.EncodeToString(h.Sum(nil))
}
