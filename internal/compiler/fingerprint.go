package compiler

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/sha3"

	"github.com/aretw0/conduit/pkg/domain"
)

// Fingerprint returns a stable identifier for a piece of code: the first 16
// bytes of the SHA3-256 digest of its JSON form, hex encoded. Graphs depend
// on code alone, so this keys the graph cache.
func Fingerprint(code []domain.Instruction) string {
	return digest(code)
}

// ReportFingerprint identifies an analysis result. Besides the code it covers
// the parameter and storage types and the environment, all of which change
// the initial stack and therefore every rendered path.
func ReportFingerprint(c *domain.Contract, env *domain.Env) string {
	return digest(struct {
		Code      []domain.Instruction `json:"code"`
		Parameter string               `json:"parameter"`
		Storage   string               `json:"storage"`
		Env       *domain.Env          `json:"env"`
	}{c.Code, c.Parameter.String(), c.Storage.String(), env})
}

func digest(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// instructions are plain data; marshalling cannot fail
		panic(err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
