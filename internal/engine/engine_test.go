package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdulelahsg/dynamic-links/internal/platform"
	"github.com/Abdulelahsg/dynamic-links/internal/storage"
)

const (
	uaAndroid = "Mozilla/5.0 (Linux; Android 10; SM-G970F Build/QP1A.190711.020; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/78.0.3904.108 Mobile Safari/537.36"
	uaWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	uaIPad    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
)

type MockSource struct {
	rows []storage.RouteRow
	err  error
}

func (m *MockSource) LoadRoutes(ctx context.Context) ([]storage.RouteRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func url(u string) storage.TargetRow { return storage.TargetRow{URL: u} }

func obj(o storage.DeepLinkRow) storage.TargetRow {
	return storage.TargetRow{Object: o, IsObject: true}
}

func exampleRows() []storage.RouteRow {
	return []storage.RouteRow{
		{Path: "/app", Targets: map[string]storage.TargetRow{
			"android": obj(storage.DeepLinkRow{
				AppName:    "Five",
				AppPath:    "user?screen_name=appwrite1",
				AppPackage: "com.fivesocialmedia.fivesocialmedia",
				Fallback:   playStore,
			}),
			"default": url("https://twitter.com/appwrite"),
		}},
		{Path: "/test", Targets: map[string]storage.TargetRow{
			"mobile":  url("https://m.example.com/test"),
			"desktop": url("https://www.example.com/test"),
			"default": url("https://www.example.com/test"),
		}},
	}
}

func newTestEngine(t *testing.T, includeDefault bool, rows []storage.RouteRow) *Engine {
	t.Helper()
	e := NewEngine(platform.NewDetector(includeDefault))
	require.NoError(t, e.BuildSnapshot(context.Background(), &MockSource{rows: rows}))
	return e
}

func TestEngine_Match_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		req  MatchRequest
		want Action
	}{
		{
			name: "android opens the app",
			req:  MatchRequest{Path: "/app", UserAgent: uaAndroid},
			want: Action{Kind: ActionDeepLink, Platform: platform.Android, Reason: ReasonPlatform, DeepLink: DeepLink{
				AppName:    "Five",
				AppPath:    "user?screen_name=appwrite1",
				AppPackage: "com.fivesocialmedia.fivesocialmedia",
				Fallback:   playStore,
			}},
		},
		{
			name: "windows redirects to default",
			req:  MatchRequest{Path: "/app", UserAgent: uaWindows},
			want: Action{Kind: ActionRedirect, URL: "https://twitter.com/appwrite", Platform: platform.Default, Reason: ReasonDefaultTag},
		},
		{
			name: "ipad takes mobile",
			req:  MatchRequest{Path: "/test", UserAgent: uaIPad},
			want: Action{Kind: ActionRedirect, URL: "https://m.example.com/test", Platform: platform.Mobile, Reason: ReasonPlatform},
		},
		{
			name: "unknown path is empty",
			req:  MatchRequest{Path: "/nope", UserAgent: uaAndroid},
			want: Action{Kind: ActionEmpty, Reason: ReasonNoRoute},
		},
		{
			name: "path match is exact",
			req:  MatchRequest{Path: "/app/", UserAgent: uaAndroid},
			want: Action{Kind: ActionEmpty, Reason: ReasonNoRoute},
		},
	}

	e := newTestEngine(t, true, exampleRows())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Match(context.Background(), tt.req))
		})
	}
}

func TestEngine_Match_NoPlatformNoDefault(t *testing.T) {
	e := newTestEngine(t, false, []storage.RouteRow{
		{Path: "/ios-only", Targets: map[string]storage.TargetRow{"ios": url("https://apps.apple.com/app/id1")}},
	})

	a := e.Match(context.Background(), MatchRequest{Path: "/ios-only", UserAgent: uaWindows})
	assert.Equal(t, Action{Kind: ActionEmpty, Reason: ReasonNoMatch}, a)
}

func TestEngine_BuildSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     *MockSource
		wantIs  error
		wantCfg bool
	}{
		{"empty table", &MockSource{}, ErrNoRoutes, false},
		{"source failure", &MockSource{err: context.DeadlineExceeded}, context.DeadlineExceeded, false},
		{
			name: "empty path",
			src: &MockSource{rows: []storage.RouteRow{
				{Path: "", Targets: map[string]storage.TargetRow{"default": url("https://a")}},
			}},
			wantIs:  errEmptyPath,
			wantCfg: true,
		},
		{
			name: "unknown platform",
			src: &MockSource{rows: []storage.RouteRow{
				{Path: "/a", Targets: map[string]storage.TargetRow{"andriod": url("https://a")}},
			}},
			wantIs:  errUnknownPlatform,
			wantCfg: true,
		},
		{
			name: "default is an object",
			src: &MockSource{rows: []storage.RouteRow{
				{Path: "/a", Targets: map[string]storage.TargetRow{"default": obj(storage.DeepLinkRow{AppName: "A"})}},
			}},
			wantIs:  errDefaultNotURL,
			wantCfg: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(platform.NewDetector(true))
			err := e.BuildSnapshot(context.Background(), tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)

			var cfgErr *ConfigError
			assert.Equal(t, tt.wantCfg, errors.As(err, &cfgErr))
			assert.Equal(t, 0, e.Routes())
		})
	}
}

func TestEngine_BuildSnapshot_KeepsPreviousOnError(t *testing.T) {
	e := newTestEngine(t, true, exampleRows())
	require.Equal(t, 2, e.Routes())

	err := e.BuildSnapshot(context.Background(), &MockSource{})
	assert.ErrorIs(t, err, ErrNoRoutes)
	assert.Equal(t, 2, e.Routes())

	_, ok := e.Lookup("/app")
	assert.True(t, ok)
}

func TestEngine_BuildSnapshot_Normalizes(t *testing.T) {
	e := newTestEngine(t, true, []storage.RouteRow{
		{Path: "/a", Targets: map[string]storage.TargetRow{
			" Android ": url("https://first.example.com"),
			"ios":       url(""),
			"desktop":   obj(storage.DeepLinkRow{Fallback: "https://desktop.example.com"}),
		}},
		{Path: "/a", Targets: map[string]storage.TargetRow{"default": url("https://second.example.com")}},
	})

	tm, ok := e.Lookup("/a")
	require.True(t, ok)
	assert.Equal(t, Target{URL: "https://first.example.com"}, tm[platform.Android])
	assert.NotContains(t, tm, platform.IOS, "empty URL is dropped")
	assert.False(t, tm[platform.Desktop].IsDeepLink())
	assert.NotContains(t, tm, platform.Default, "duplicate path ignored")
	assert.Equal(t, 1, e.Routes())
}

func TestEngine_Match_BeforeSnapshot(t *testing.T) {
	e := NewEngine(platform.NewDetector(true))
	a := e.Match(context.Background(), MatchRequest{Path: "/app", UserAgent: uaAndroid})
	assert.Equal(t, ActionEmpty, a.Kind)
}

func TestEngine_BuildSnapshot_NullTargetDropped(t *testing.T) {
	src := storage.NewInlineStore(`[{"path": "/a", "targets": {"android": null, "default": "https://a.example.com"}}]`)
	e := NewEngine(platform.NewDetector(true))
	require.NoError(t, e.BuildSnapshot(context.Background(), src))

	tm, ok := e.Lookup("/a")
	require.True(t, ok)
	assert.NotContains(t, tm, platform.Android)
	assert.Equal(t, Target{URL: "https://a.example.com"}, tm[platform.Default])

	a := e.Match(context.Background(), MatchRequest{Path: "/a", UserAgent: uaAndroid})
	assert.Equal(t, ActionRedirect, a.Kind)
	assert.Equal(t, "https://a.example.com", a.URL)
}
