package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	idmodel "github.com/andreypavlenko/offertrack/modules/identity/model"
)

func TestCanonicalizeCompany_StripsLegalSuffix(t *testing.T) {
	got := CanonicalizeCompany("Xebia Group Inc", "careers@xebia.com", "Xebia Careers", "", "")
	assert.Equal(t, "xebia", got)
}

func TestCanonicalizeCompany_AssessmentVendorRoutesToDisplayName(t *testing.T) {
	got := CanonicalizeCompany("", "support@hackerrankforwork.com", "ExampleCo Hiring Team", "", "")
	assert.Equal(t, "exampleco", got)
}

func TestCanonicalizeCompany_PersonalMailboxFallsBackToDomainHint(t *testing.T) {
	got := CanonicalizeCompany("", "someone@gmail.com", "Someone", "We are excited to have you join acme.com", "")
	assert.Equal(t, "acme", got)
}

func TestMergeAliases_IntraDomainMerge(t *testing.T) {
	observations := []idmodel.AliasKey{
		{DomainRoot: "xebia", Label: "xebia"},
		{DomainRoot: "xebia", Label: "xebia"},
		{DomainRoot: "xebia", Label: "xebia group"},
		{DomainRoot: "xebia", Label: "xebia group inc"},
	}
	aliases := MergeAliases(observations)
	target := ResolveCanonical(aliases, "xebia", "xebia group inc")
	assert.Equal(t, ResolveCanonical(aliases, "xebia", "xebia"), target)
	assert.Equal(t, ResolveCanonical(aliases, "xebia", "xebia group"), target)
}

func TestMergeAliases_DoesNotCrossIntermediaryDomain(t *testing.T) {
	observations := []idmodel.AliasKey{
		{DomainRoot: "xebia", Label: "xebia"},
		{DomainRoot: "ashbyhq", Label: "xebia"},
	}
	aliases := MergeAliases(observations)
	_, ok := aliases[idmodel.AliasKey{DomainRoot: "ashbyhq", Label: "xebia"}]
	assert.False(t, ok, "intermediary domain roots must be excluded from alias merging")
}

func TestMergeAliases_Idempotent(t *testing.T) {
	observations := []idmodel.AliasKey{
		{DomainRoot: "acme", Label: "acme"},
		{DomainRoot: "acme", Label: "acme corp"},
	}
	first := MergeAliases(observations)
	second := MergeAliases(observations)
	assert.Equal(t, first, second)
}
