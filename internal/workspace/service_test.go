package workspace

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/nbshell/internal/apperr"
	"github.com/starford/nbshell/internal/session"
	"github.com/starford/nbshell/internal/sidebar"
	"github.com/starford/nbshell/internal/testutil"
	"github.com/starford/nbshell/internal/typemap"
	"github.com/starford/nbshell/internal/upstream"
)

type recorder struct {
	mu       sync.Mutex
	updates  int
	landings []string
}

func (r *recorder) PublishSidebarUpdate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
}

func (r *recorder) PublishLanding(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.landings = append(r.landings, id)
}

func testService(t *testing.T) (*Service, *testutil.FakeUpstream, *recorder) {
	t.Helper()
	fake := testutil.NewFakeUpstream(t)
	client, err := upstream.New(fake.URL(), time.Second)
	require.NoError(t, err)

	logger := testutil.QuietLogger()
	gate := session.NewGate(testutil.TestStore(t), client, logger)
	rec := &recorder{}
	types := typemap.New(map[string]string{"ResponseTime": typemap.TypeMillisecond})
	return NewService(gate, sidebar.NewState(), client, rec, types, logger), fake, rec
}

func TestLoginLoadsSidebar(t *testing.T) {
	svc, fake, rec := testService(t)
	fake.AddUser("admin", "pw")
	fake.SetNotes(
		testutil.Note{ID: "n1", Name: "Ops/Disk"},
		testutil.Note{ID: "n2", Name: "Ops/CPU"},
		testutil.Note{ID: "n3", Name: "Infra/Net"},
	)

	st, err := svc.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	assert.Equal(t, "ticket-admin", st.Ticket)

	view, err := svc.Sidebar()
	require.NoError(t, err)
	require.Len(t, view.Categories, 2)
	assert.Equal(t, "Ops", view.Categories[0].Name)
	assert.Equal(t, "n1", view.DefaultLanding)

	assert.Equal(t, 1, rec.updates)
	assert.Equal(t, []string{"n1"}, rec.landings)
}

func TestLoginFailure(t *testing.T) {
	svc, _, _ := testService(t)
	st, err := svc.Login(context.Background(), "ghost", "x")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.False(t, st.Authenticated)

	_, err = svc.Sidebar()
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = svc.RefreshSidebar(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestRefreshSidebar_UnchangedListingIsQuiet(t *testing.T) {
	svc, fake, rec := testService(t)
	fake.SetTicket(http.StatusOK, `{"status":"OK","body":"T1"}`)
	fake.SetNotes(testutil.Note{ID: "n1", Name: "Ops/Disk"})

	require.True(t, svc.CheckTicket(context.Background()).Authenticated)

	_, err := svc.RefreshSidebar(context.Background())
	require.NoError(t, err)
	ch, err := svc.RefreshSidebar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sidebar.Change{}, ch)
	assert.Equal(t, 1, rec.updates)
	assert.Equal(t, 2, fake.Calls("/api/notebook"))
}

func TestLogoutHidesSidebar(t *testing.T) {
	svc, fake, _ := testService(t)
	fake.SetTicket(http.StatusOK, `{"status":"OK","body":"T1"}`)
	require.True(t, svc.CheckTicket(context.Background()).Authenticated)

	svc.Logout()
	assert.False(t, svc.Session().Authenticated)
	_, err := svc.Sidebar()
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestToggleCategory(t *testing.T) {
	svc, fake, rec := testService(t)
	fake.SetTicket(http.StatusOK, `{"status":"OK","body":"T1"}`)
	fake.SetNotes(testutil.Note{ID: "n1", Name: "Ops/Disk"})
	svc.CheckTicket(context.Background())
	_, err := svc.RefreshSidebar(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.ToggleCategory("Ops"))
	assert.ErrorIs(t, svc.ToggleCategory("Nope"), apperr.ErrNotFound)

	view, err := svc.Sidebar()
	require.NoError(t, err)
	assert.True(t, view.Categories[0].Expanded)
	assert.Equal(t, 2, rec.updates)
}

func TestFormat(t *testing.T) {
	svc, _, _ := testService(t)
	assert.Equal(t, map[string]string{"ResponseTime": typemap.TypeMillisecond}, svc.Types())
	assert.Equal(t, map[string]string{"ResponseTime": "5ms"}, svc.Format(map[string]any{"ResponseTime": 5}))
}
