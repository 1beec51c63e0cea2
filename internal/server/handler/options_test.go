package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aspect-build/prctl/internal/prctl"
	"github.com/aspect-build/prctl/internal/server/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fakeKernel keeps DUMPABLE and TIMING in memory and refuses TIMING writes.
type fakeKernel struct {
	dumpable int
	calls    int
}

func (k *fakeKernel) PrctlWord(code int, arg uintptr) (int, error) {
	k.calls++
	switch code {
	case unix.PR_SET_DUMPABLE:
		if arg > 1 {
			return -1, unix.EINVAL
		}
		k.dumpable = int(arg)
		return 0, nil
	case unix.PR_SET_TIMING:
		return -1, unix.EPERM
	}
	return 0, nil
}

func (k *fakeKernel) PrctlBuffer(code int, buf []byte) (int, error) {
	k.calls++
	switch code {
	case unix.PR_GET_DUMPABLE:
		return k.dumpable, nil
	case unix.PR_GET_NAME:
		copy(buf, "fake")
	case unix.PR_GET_FPEMU, unix.PR_GET_FPEXC, unix.PR_GET_UNALIGN:
		return -1, unix.EINVAL
	}
	return 0, nil
}

type testEnv struct {
	kernel *fakeKernel
	store  *db.Store
	router *gin.Engine
}

func newTestEnv(t *testing.T, allowSet bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := db.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	k := &fakeKernel{dumpable: 1}
	ctrl := prctl.NewController(k)

	r := gin.New()
	r.GET("/v1/options", HandleListOptions(ctrl))
	r.GET("/v1/options/:name", HandleGetOption(ctrl))
	r.PUT("/v1/options/:name", HandleSetOption(ctrl, store, allowSet))
	r.GET("/v1/changes", HandleListChanges(store))
	return &testEnv{kernel: k, store: store, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestListOptions(t *testing.T) {
	env := newTestEnv(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/options", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out []optionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, len(prctl.Options()))

	byName := map[string]optionResponse{}
	for _, o := range out {
		byName[o.Name] = o
	}
	assert.Equal(t, float64(1), byName["DUMPABLE"].Value)
	assert.Equal(t, "fake", byName["NAME"].Value)
	assert.Equal(t, "text", byName["NAME"].Kind)
	assert.True(t, byName["NAME"].ThreadScoped)
	assert.Equal(t, int(unix.EINVAL), byName["FPEMU"].Errno)
	assert.Nil(t, byName["FPEMU"].Value)
}

func TestGetOption(t *testing.T) {
	env := newTestEnv(t, true)

	code, body := env.do(t, http.MethodGet, "/v1/options/dumpable", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "DUMPABLE", body["name"])
	assert.Equal(t, float64(1), body["value"])

	// Numeric index works as well.
	code, body = env.do(t, http.MethodGet, "/v1/options/7", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "NAME", body["name"])

	code, _ = env.do(t, http.MethodGet, "/v1/options/99", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodGet, "/v1/options/SECCOMP", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = env.do(t, http.MethodGet, "/v1/options/FPEXC", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, float64(unix.EINVAL), body["errno"])
}

func TestSetOption(t *testing.T) {
	env := newTestEnv(t, true)

	code, body := env.do(t, http.MethodPut, "/v1/options/DUMPABLE", map[string]any{"value": 0})
	require.Equal(t, http.StatusOK, code, "body=%v", body)
	assert.Equal(t, float64(0), body["value"])
	assert.Equal(t, 0, env.kernel.dumpable)

	changes, err := env.store.ListChanges("DUMPABLE", 0)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "1", changes[0].PreviousValue)
	assert.Equal(t, "0", changes[0].RequestedValue)
	assert.Zero(t, changes[0].Errno)
}

func TestSetOption_Failures(t *testing.T) {
	env := newTestEnv(t, true)

	// Kernel rejects the value; the attempt is still audited.
	code, body := env.do(t, http.MethodPut, "/v1/options/DUMPABLE", map[string]any{"value": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, float64(unix.EINVAL), body["errno"])

	code, _ = env.do(t, http.MethodPut, "/v1/options/TIMING", map[string]any{"value": 1})
	assert.Equal(t, http.StatusForbidden, code)

	changes, err := env.store.ListChanges("", 0)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, int(unix.EPERM), changes[0].Errno)
	assert.Equal(t, int(unix.EINVAL), changes[1].Errno)

	before := env.kernel.calls
	code, _ = env.do(t, http.MethodPut, "/v1/options/DUMPABLE", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPut, "/v1/options/DUMPABLE", map[string]any{"value": 1.5})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPut, "/v1/options/DUMPABLE", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	// Only the previous-value read may reach the kernel on a type mismatch.
	assert.LessOrEqual(t, env.kernel.calls-before, 1)
	assert.Equal(t, 1, env.kernel.dumpable)

	code, body = env.do(t, http.MethodPut, "/v1/options/NAME", map[string]any{"value": "worker-1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["error"], "thread-scoped")

	code, _ = env.do(t, http.MethodPut, "/v1/options/42", map[string]any{"value": 1})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSetOption_Disabled(t *testing.T) {
	env := newTestEnv(t, false)

	code, _ := env.do(t, http.MethodPut, "/v1/options/DUMPABLE", map[string]any{"value": 0})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 1, env.kernel.dumpable)
}

func TestListChanges(t *testing.T) {
	env := newTestEnv(t, true)
	for _, v := range []int{0, 1, 0} {
		code, _ := env.do(t, http.MethodPut, "/v1/options/DUMPABLE", map[string]any{"value": v})
		require.Equal(t, http.StatusOK, code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/changes?limit=2", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var changes []db.Change
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &changes))
	require.Len(t, changes, 2)
	assert.Equal(t, "0", changes[0].RequestedValue)
	assert.Equal(t, "1", changes[1].RequestedValue)

	code, _ := env.do(t, http.MethodGet, "/v1/changes?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
