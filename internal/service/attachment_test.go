package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentValidate(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		files   []Upload
		wantErr bool
	}{
		{"empty batch", nil, false},
		{"png jpeg gif", []Upload{pngUpload("a.png"), upload("b.jpeg", jpegHeader), upload("c.GIF", gifHeader)}, false},
		{"five files", []Upload{pngUpload("1.png"), pngUpload("2.png"), pngUpload("3.png"), pngUpload("4.png"), pngUpload("5.png")}, false},
		{"six files", []Upload{pngUpload("1.png"), pngUpload("2.png"), pngUpload("3.png"), pngUpload("4.png"), pngUpload("5.png"), pngUpload("6.png")}, true},
		{"bad extension", []Upload{upload("scan.pdf", pngHeader)}, true},
		{"no extension", []Upload{upload("scan", pngHeader)}, true},
		{"disguised text", []Upload{upload("fake.jpg", []byte("plain text body"))}, true},
		{"too large", []Upload{{Filename: "huge.png", Size: MaxImageSize + 1, Open: pngUpload("huge.png").Open}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.attachments.Validate(tt.files)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAttachmentAddAndRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	none, err := env.attachments.AddImages(ctx, CustomerOwner("c1"), nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	added, err := env.attachments.AddImages(ctx, CustomerOwner("c1"), []Upload{pngUpload("a.PNG"), pngUpload("b.png")})
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, img := range added {
		assert.True(t, strings.HasPrefix(img.ImageURL, "/uploads/measurements/measurement_"))
		assert.True(t, strings.HasSuffix(img.ImageURL, ".png"))
	}

	other, err := env.attachments.AddImages(ctx, SuitOwner("c1_1"), []Upload{pngUpload("s.png")})
	require.NoError(t, err)

	// Ids owned by someone else are ignored.
	removed, err := env.attachments.RemoveImages(ctx, CustomerOwner("c1"), []uint{added[0].ID, other[0].ID, 12345})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, added[0].ID, removed[0].ID)

	remaining, err := env.attachments.ListImages(ctx, CustomerOwner("c1"))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, added[1].ID, remaining[0].ID)

	grouped, err := env.attachments.ListImagesFor(ctx, "suit", "c1_1", "c1_2")
	require.NoError(t, err)
	assert.Len(t, grouped["c1_1"], 1)
	assert.Empty(t, grouped["c1_2"])
}

func TestAttachmentReclaim(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	added, err := env.attachments.AddImages(ctx, SuitOwner("x_1"), []Upload{pngUpload("a.png")})
	require.NoError(t, err)
	require.Equal(t, 1, env.store.count())

	cancel()
	env.attachments.Reclaim(ctx, imageURLs(added))
	assert.Equal(t, 0, env.store.count())
}
