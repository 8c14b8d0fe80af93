package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit {
		t.Errorf("expected limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_SkipAndOffset(t *testing.T) {
	if p := paramsFor(t, "limit=50&skip=10"); p.Limit != 50 || p.Offset != 10 {
		t.Errorf("unexpected params %+v", p)
	}
	if p := paramsFor(t, "offset=30"); p.Offset != 30 {
		t.Errorf("expected offset alias to be honoured, got %+v", p)
	}
	if p := paramsFor(t, "skip=0&offset=30"); p.Offset != 0 {
		t.Errorf("expected explicit skip to win, got %+v", p)
	}
}

func TestFromContext_Clamping(t *testing.T) {
	if p := paramsFor(t, "limit=500"); p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
	if p := paramsFor(t, "skip=-5"); p.Offset != 0 {
		t.Errorf("expected negative skip clamped to 0, got %d", p.Offset)
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 45, 20, 20)
	if resp.Page != 2 || resp.Pages != 3 {
		t.Errorf("expected page 2 of 3, got %d of %d", resp.Page, resp.Pages)
	}
	if !resp.HasMore {
		t.Error("expected HasMore")
	}

	last := NewResponse(nil, 45, 20, 40)
	if last.HasMore {
		t.Error("expected last page to have no more results")
	}

	empty := NewResponse([]string{}, 0, 20, 0)
	if empty.Pages != 0 || empty.Page != 1 || empty.HasMore {
		t.Errorf("unexpected empty response %+v", empty)
	}
}

func TestParams_NextOffset(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if p.NextOffset() != 60 {
		t.Errorf("expected 60, got %d", p.NextOffset())
	}
	if !p.HasNext(61) || p.HasNext(60) {
		t.Error("unexpected HasNext result")
	}
}
