package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/conduit/pkg/domain"
)

func TestReportFingerprint(t *testing.T) {
	code := []domain.Instruction{{Prim: "CDR"}}
	base := &domain.Contract{Parameter: domain.TypeUnit, Storage: domain.TypeInt, Code: code}
	env := domain.DefaultEnv()
	id := ReportFingerprint(base, env)

	assert.Len(t, id, 32)
	assert.Equal(t, id, ReportFingerprint(&domain.Contract{Name: "renamed", Parameter: domain.TypeUnit, Storage: domain.TypeInt, Code: code}, domain.DefaultEnv()),
		"the name is not part of the analysis")

	otherStorage := &domain.Contract{Parameter: domain.TypeUnit, Storage: domain.TypeBytes, Code: code}
	assert.NotEqual(t, id, ReportFingerprint(otherStorage, env))

	otherParam := &domain.Contract{Parameter: domain.TypeInt, Storage: domain.TypeInt, Code: code}
	assert.NotEqual(t, id, ReportFingerprint(otherParam, env))

	assert.NotEqual(t, id, ReportFingerprint(base, env.Merge(&domain.Env{Sender: "tz1bob"})))
	assert.NotEqual(t, Fingerprint(code), id, "graph and report keys are distinct")
}
