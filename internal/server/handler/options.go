package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"syscall"

	"github.com/aspect-build/prctl/internal/prctl"
	"github.com/aspect-build/prctl/internal/server/db"
	"github.com/gin-gonic/gin"
)

// Controller is the subset of *prctl.Controller the handlers need.
type Controller interface {
	Get(opt prctl.Option) (prctl.Value, error)
	Set(opt prctl.Option, v prctl.Value) error
}

type optionResponse struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Kind         string `json:"kind"`
	ThreadScoped bool   `json:"thread_scoped"`
	Value        any    `json:"value"`
	Errno        int    `json:"errno,omitempty"`
	Error        string `json:"error,omitempty"`
}

func describe(d prctl.Descriptor, v prctl.Value, err error) optionResponse {
	resp := optionResponse{
		Index:        int(d.Option),
		Name:         d.Name,
		Description:  d.Description,
		Kind:         d.Kind.String(),
		ThreadScoped: d.ThreadScoped,
		Value:        v.Any(),
	}
	if err != nil {
		resp.Errno = int(prctl.ErrnoOf(err))
		resp.Error = err.Error()
	}
	return resp
}

// resolveOption accepts either an option name ("NAME") or its index ("7").
func resolveOption(param string) (prctl.Descriptor, error) {
	if o, ok := prctl.ByName(param); ok {
		return prctl.Lookup(o)
	}
	n, err := strconv.Atoi(param)
	if err != nil {
		return prctl.Descriptor{}, &prctl.Error{Kind: prctl.InvalidOption, Option: -1, Err: err}
	}
	return prctl.Lookup(prctl.Option(n))
}

// HandleListOptions handles GET /v1/options.
// Options that cannot be read on this host are listed with their errno.
func HandleListOptions(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts := prctl.Options()
		out := make([]optionResponse, 0, len(opts))
		for _, d := range opts {
			v, err := ctrl.Get(d.Option)
			out = append(out, describe(d, v, err))
		}
		c.JSON(http.StatusOK, out)
	}
}

// HandleGetOption handles GET /v1/options/:name.
func HandleGetOption(ctrl Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := resolveOption(c.Param("name"))
		if err != nil {
			writeControlError(c, err)
			return
		}
		v, err := ctrl.Get(d.Option)
		if err != nil {
			writeControlError(c, err)
			return
		}
		c.JSON(http.StatusOK, describe(d, v, nil))
	}
}

type setOptionRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// HandleSetOption handles PUT /v1/options/:name.
//
// Only process-wide attributes can be written: a request is served on an
// arbitrary OS thread, so a thread-scoped write would land on whichever
// thread happened to run the handler.
func HandleSetOption(ctrl Controller, store *db.Store, allowSet bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := resolveOption(c.Param("name"))
		if err != nil {
			writeControlError(c, err)
			return
		}
		if !allowSet {
			c.JSON(http.StatusForbidden, gin.H{"error": "attribute writes are disabled"})
			return
		}
		if d.ThreadScoped {
			c.JSON(http.StatusConflict, gin.H{
				"error": d.Name + " is thread-scoped",
				"hint":  "use the prctl CLI to set thread-scoped attributes",
			})
			return
		}

		var req setOptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		v, err := decodeValue(req.Value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		prev, _ := ctrl.Get(d.Option)
		setErr := ctrl.Set(d.Option, v)

		change := &db.Change{
			Option:         int(d.Option),
			OptionName:     d.Name,
			PreviousValue:  prev.String(),
			RequestedValue: v.String(),
			Errno:          int(prctl.ErrnoOf(setErr)),
			RemoteAddr:     c.ClientIP(),
		}
		if setErr != nil {
			change.Error = setErr.Error()
		}
		// Type mismatches never reach the kernel and are not audited.
		if !errors.Is(setErr, prctl.ErrTypeMismatch) {
			if err := store.RecordChange(change); err != nil {
				log.Printf("RecordChange(%s) error: %v", d.Name, err)
			}
		}

		if setErr != nil {
			writeControlError(c, setErr)
			return
		}

		cur, err := ctrl.Get(d.Option)
		c.JSON(http.StatusOK, describe(d, cur, err))
	}
}

// decodeValue maps a JSON string to a text value and a JSON integer to an
// integer value.
func decodeValue(raw json.RawMessage) (prctl.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return prctl.Value{}, err
		}
		return prctl.Text(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return prctl.Value{}, errors.New("value must be an integer or a string")
	}
	i, err := n.Int64()
	if err != nil {
		return prctl.Value{}, errors.New("value must be an integer or a string")
	}
	return prctl.Int(i), nil
}

func writeControlError(c *gin.Context, err error) {
	errno := prctl.ErrnoOf(err)
	switch {
	case errors.Is(err, prctl.ErrInvalidOption):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid option"})
	case errors.Is(err, prctl.ErrTypeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errno == syscall.EPERM || errno == syscall.EACCES:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "errno": int(errno)})
	case errors.Is(err, prctl.ErrSystemCallFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "errno": int(errno)})
	default:
		log.Printf("prctl error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
