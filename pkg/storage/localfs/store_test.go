// Copyright © 2018 One Concern

package localfs

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/oneconcern/comfyrestore/pkg/errors"
	"github.com/oneconcern/comfyrestore/pkg/storage"
	"github.com/oneconcern/comfyrestore/pkg/storage/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeRoot = "/workspace/.backup_tmp/hf_pull"

func setupStore(t testing.TB) (storage.Store, afero.Fs) {
	t.Helper()

	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, storeRoot+"/sixteentons", []byte("this is the text"), 0644))
	require.NoError(t, afero.WriteFile(base, storeRoot+"/ComfyUI/models/seventeentons", []byte("this is the text for another thing"), 0644))

	return New(afero.NewBasePathFs(base, storeRoot)), base
}

func TestHas(t *testing.T) {
	bs, _ := setupStore(t)

	has, err := bs.Has(context.Background(), "sixteentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "ComfyUI/models/seventeentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "ComfyUI/models")
	require.NoError(t, err)
	require.False(t, has)

	has, err = bs.Has(context.Background(), "fifteentons")
	require.NoError(t, err)
	require.False(t, has)
}

func TestGet(t *testing.T) {
	bs, _ := setupStore(t)

	rdr, err := bs.Get(context.Background(), "ComfyUI/models/seventeentons")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text for another thing", string(b))

	_, err = bs.Get(context.Background(), "fifteentons")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotExists))
}

func TestKeys(t *testing.T) {
	bs, _ := setupStore(t)

	keys, err := bs.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ComfyUI/models/seventeentons", "sixteentons"}, keys)
}

func TestPut(t *testing.T) {
	bs, base := setupStore(t)

	content := bytes.NewBufferString("here we go once again")
	require.NoError(t, bs.Put(context.Background(), "ComfyUI/user/default/workflows/eighteentons.json", content))

	b, err := storage.ReadAll(context.Background(), bs, "ComfyUI/user/default/workflows/eighteentons.json")
	require.NoError(t, err)
	assert.Equal(t, "here we go once again", string(b))

	exists, err := afero.Exists(base, storeRoot+"/ComfyUI/user/default/workflows/eighteentons.json")
	require.NoError(t, err)
	assert.True(t, exists)

	k, _ := bs.Keys(context.Background())
	assert.Len(t, k, 3)
}

func TestPutCannotEscape(t *testing.T) {
	bs, base := setupStore(t)

	require.NoError(t, bs.Put(context.Background(), "../../escaped", bytes.NewBufferString("x")))
	exists, err := afero.Exists(base, storeRoot+"/escaped")
	require.NoError(t, err)
	assert.True(t, exists)

	err = bs.Put(context.Background(), "/", bytes.NewBufferString("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidKey))
}

func TestDelete(t *testing.T) {
	bs, _ := setupStore(t)

	require.NoError(t, bs.Delete(context.Background(), "sixteentons"))
	require.NoError(t, bs.Delete(context.Background(), "sixteentons"))
	k, _ := bs.Keys(context.Background())
	assert.Len(t, k, 1)
}

func TestClear(t *testing.T) {
	bs, base := setupStore(t)

	require.NoError(t, bs.Clear(context.Background()))
	k, err := bs.Keys(context.Background())
	require.NoError(t, err)
	require.Empty(t, k)

	exists, err := afero.DirExists(base, storeRoot)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestString(t *testing.T) {
	bs, _ := setupStore(t)
	assert.Equal(t, "localfs@"+storeRoot, bs.String())
	assert.Equal(t, "localfs", New(afero.NewMemMapFs()).String())
}
