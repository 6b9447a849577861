package model

import (
	"strings"
	"time"
)

// AssetBucket groups delivered assets into the display sections the
// portal renders (logos, color swatches, guideline documents, website
// snapshots, design-board links, changelog entries).
type AssetBucket string

const (
	BucketLogo      AssetBucket = "logo"
	BucketColor     AssetBucket = "color"
	BucketGuideline AssetBucket = "guideline"
	BucketWebsite   AssetBucket = "website"
	BucketBoard     AssetBucket = "board"
	BucketChangelog AssetBucket = "changelog"
	BucketOther     AssetBucket = "other"
)

// Asset records a delivered file or reference as stored in the
// `assets` table.  Category is the stored bucket assigned at creation
// time; rows created before the column existed have it empty and fall
// back to keyword classification (see Bucket).
//
// Fields:
//  ID          – generated UUID primary key.
//  UserID      – owner of the asset.
//  Label       – display label.
//  Description – optional longer description.
//  Category    – stored display bucket; empty on legacy rows.
//  FilePath    – object storage key of the delivered file.
//  FileSize    – size in bytes.
//  MimeType    – content type of the stored object.
//  CreatedAt   – creation timestamp.
type Asset struct {
	ID          string    // assets.id (UUID)
	UserID      uint64    // assets.user_id
	Label       string    // assets.label
	Description string    // assets.description
	Category    string    // assets.category
	FilePath    string    // assets.file_path
	FileSize    int64     // assets.file_size
	MimeType    string    // assets.mime_type
	CreatedAt   time.Time // assets.created_at
}

// bucketKeywords maps display buckets to the label/description keywords
// used to classify rows that predate the stored category column.
var bucketKeywords = []struct {
	bucket AssetBucket
	words  []string
}{
	{BucketLogo, []string{"logo"}},
	{BucketColor, []string{"color", "colour", "palette", "swatch"}},
	{BucketGuideline, []string{"guideline", "guide", "brand book"}},
	{BucketWebsite, []string{"website", "web snapshot", "landing"}},
	{BucketBoard, []string{"board", "figma", "canva"}},
	{BucketChangelog, []string{"changelog", "revision", "update log"}},
}

// Bucket returns the display bucket for the asset.  The stored category
// wins when present; otherwise the label and description are matched
// against the keyword table, first hit wins, and unmatched assets land
// in BucketOther.
func (a Asset) Bucket() AssetBucket {
	if a.Category != "" {
		return AssetBucket(a.Category)
	}
	text := strings.ToLower(a.Label + " " + a.Description)
	for _, bk := range bucketKeywords {
		for _, w := range bk.words {
			if strings.Contains(text, w) {
				return bk.bucket
			}
		}
	}
	return BucketOther
}
