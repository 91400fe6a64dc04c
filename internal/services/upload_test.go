package services

import (
	"strings"
	"testing"
	"time"

	"stuffbox-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignImage(t *testing.T) {
	f := newFixture(t)
	u := f.user("alice")
	f.uploads.now = func() time.Time { return time.UnixMilli(1700000000000) }

	resp, err := f.uploads.PresignImage(f.ctx, u.ID, UploadRequest{Filename: `C:\photos\Desk.PNG`})
	require.NoError(t, err)
	assert.Equal(t, "alice-"+u.ID+"/imgs/1700000000000-Desk.PNG", resp.Key)
	assert.Equal(t, 300, resp.ExpiresIn)
	assert.True(t, strings.HasSuffix(resp.UploadURL, "content-type=image/png"))
	assert.True(t, ownsUpload(u, resp.Key))

	_, err = f.uploads.PresignImage(f.ctx, u.ID, UploadRequest{Filename: "notes.txt"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "image", verr.Fields["filename"])
}

func TestOwnsUpload(t *testing.T) {
	u := &models.User{ID: "u1", NickName: "alice"}

	assert.True(t, ownsUpload(u, "alice-u1/imgs/1-a.png"))
	assert.True(t, ownsUpload(u, "renamed-u1/imgs/1-a.png"))
	assert.False(t, ownsUpload(u, "alice-u2/imgs/1-a.png"))
	assert.False(t, ownsUpload(u, "alice-u1/imgs/"))
	assert.False(t, ownsUpload(u, "alice-u1/imgs/x/1-a.png"))
	assert.False(t, ownsUpload(u, "alice-u1/docs/1-a.png"))
}

func TestReleasable(t *testing.T) {
	assert.False(t, releasable(models.DefaultStuffImage))
	assert.False(t, releasable(models.DefaultAvatar))
	assert.False(t, releasable("https://elsewhere.example.com/a.png"))
	assert.False(t, releasable(""))
	assert.True(t, releasable("alice-u1/imgs/1-a.png"))
}
