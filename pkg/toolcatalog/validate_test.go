package toolcatalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	valid := func() UploadToolRequest {
		return UploadToolRequest{
			Name:     "scanner",
			Author:   "alice",
			Category: "security",
			FileName: "scanner.zip",
			Reader:   strings.NewReader("x"),
		}
	}

	t.Run("Valid", func(t *testing.T) {
		req := valid()
		assert.NoError(t, validateUpload(&req))
	})

	t.Run("DescriptionOptional", func(t *testing.T) {
		req := valid()
		req.Description = ""
		assert.NoError(t, validateUpload(&req))
	})

	cases := []struct {
		name   string
		mutate func(*UploadToolRequest)
		fields []string
	}{
		{"NoReader", func(r *UploadToolRequest) { r.Reader = nil }, []string{"file"}},
		{"NoFileName", func(r *UploadToolRequest) { r.FileName = "" }, []string{"file"}},
		{"NoFile", func(r *UploadToolRequest) { r.Reader = nil; r.FileName = "" }, []string{"file"}},
		{"NoName", func(r *UploadToolRequest) { r.Name = "" }, []string{"name"}},
		{"NoAuthorOrCategory", func(r *UploadToolRequest) { r.Author = ""; r.Category = "" }, []string{"author", "category"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)

			err := validateUpload(&req)
			require.ErrorIs(t, err, ErrBadRequest)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ElementsMatch(t, tc.fields, verr.Fields)
		})
	}
}
