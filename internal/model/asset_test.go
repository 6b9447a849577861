package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketStoredCategoryWins(t *testing.T) {
	a := Asset{Label: "Primary logo", Category: "guideline"}
	assert.Equal(t, BucketGuideline, a.Bucket(), "stored category beats keyword matching")
}

func TestBucketKeywordFallback(t *testing.T) {
	tests := []struct {
		label, description string
		want               AssetBucket
	}{
		{"Primary logo", "", BucketLogo},
		{"Brand palette", "colour swatches", BucketColor},
		{"Brand book", "usage guidelines", BucketGuideline},
		{"Landing page", "website snapshot", BucketWebsite},
		{"Figma file", "", BucketBoard},
		{"Revision notes", "changelog of round 2", BucketChangelog},
		{"Final delivery", "zip archive", BucketOther},
	}
	for _, tt := range tests {
		a := Asset{Label: tt.label, Description: tt.description}
		assert.Equal(t, tt.want, a.Bucket(), "label=%q description=%q", tt.label, tt.description)
	}
}

func TestBucketMatchingIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, BucketLogo, Asset{Label: "LOGO pack"}.Bucket())
}
