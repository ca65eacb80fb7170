package cli

import (
	"bytes"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/services"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
companies:
  - id: co1
    name: Desert Lawn Co
    base: {lon: -112.0740, lat: 33.4484}
customers:
  - id: c1
    company_id: co1
    location: {lon: -112.0500, lat: 33.4600}
    services: [{type: mow}]
  - id: c2
    company_id: co1
    location: {lon: -112.0300, lat: 33.4700}
    services: [{type: mow}]
crews:
  - crew_id: k1
    company_id: co1
    employee_ids: [e1]
    capabilities: [mow]
    working_hours:
      monday: {start: "07:00", end: "17:00"}
`

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ORS_API_KEY", "REDIS_URL", "KAFKA_BROKERS", "ARCHIVE_BUCKET", "ARCHIVE_DIR", "SEED_PATH"} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))
	return path
}

func TestPlanAndTrackRouteFile(t *testing.T) {
	isolateEnv(t)
	archiveDir := t.TempDir()
	t.Setenv("ARCHIVE_DIR", archiveDir)

	seed := writeSeed(t)
	out, err := run(t, "plan", "--seed", seed, "--company", "co1", "--date", "2026-10-19", "--now", "2026-10-19T07:00:00Z")
	require.NoError(t, err)

	var plan services.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.Len(t, plan.Routes, 1)
	route := plan.Routes[0]
	require.Len(t, route.Stops, 2)
	first, second := route.Stops[0].CustomerID, route.Stops[1].CustomerID

	routeFile := filepath.Join(t.TempDir(), "route.json")
	require.NoError(t, writeRoute(routeFile, route))

	_, err = run(t, "event", "--route", routeFile, "--type", "arrived", "--customer", first, "--at", "2026-10-19T08:00:00Z", "--write")
	require.NoError(t, err)
	out, err = run(t, "event", "--route", routeFile, "--type", "departed", "--customer", first, "--at", "2026-10-19T08:30:00Z", "--write")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "departed"`)

	saved, err := readRoute(routeFile)
	require.NoError(t, err)
	assert.Equal(t, domain.StopCompleted, saved.Stops[0].Status)

	out, err = run(t, "progress", "--route", routeFile, "--now", "2026-10-19T08:40:00Z")
	require.NoError(t, err)
	var p domain.RouteProgress
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 1, p.CompletedStops)
	assert.Equal(t, second, p.CurrentStop.CustomerID)

	out, err = run(t, "schedule", "--route", routeFile, "--now", "2026-10-19T08:40:00Z")
	require.NoError(t, err)
	var st domain.ScheduleStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, route.ID, st.RouteID)
	assert.NotEqual(t, "N/A", st.Message)

	_, err = run(t, "event", "--route", routeFile, "--type", "skipped", "--customer", second, "--reason", "gate locked", "--now", "2026-10-19T09:00:00Z", "--write")
	require.NoError(t, err)

	out, err = run(t, "breakdown", "--route", routeFile, "--archive")
	require.NoError(t, err)
	var res struct {
		WorkMinutes float64 `json:"work_minutes"`
		ArchivedKey string  `json:"archived_key"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 30.0, res.WorkMinutes)
	require.NotEmpty(t, res.ArchivedKey)
	assert.FileExists(t, filepath.Join(archiveDir, filepath.FromSlash(res.ArchivedKey)))
}

func TestPlanEveryCompany(t *testing.T) {
	isolateEnv(t)

	out, err := run(t, "plan", "--seed", "../../data/seeds/demo.yaml", "--date", "2026-10-19")
	require.NoError(t, err)

	var plans []services.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plans))
	require.Len(t, plans, 2)
	assert.Equal(t, "desert-lawn", plans[0].CompanyID)
	assert.NotEmpty(t, plans[0].Routes)
	for _, r := range plans[0].Routes {
		assert.NotEqual(t, "dl-crew-charlie", r.CrewID, "unstaffed crew got a route")
	}

	out, err = run(t, "plan", "--seed", writeSeed(t), "--date", "2026-10-19")
	require.NoError(t, err)
	plans = nil
	require.NoError(t, json.Unmarshal([]byte(out), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "co1", plans[0].CompanyID)
}

func TestDistance(t *testing.T) {
	isolateEnv(t)

	out, err := run(t, "distance", "--from", "33.4484,-112.0740", "--to", "33.4484,-112.0000")
	require.NoError(t, err)

	var res struct {
		DistanceMiles   float64 `json:"distance_miles"`
		DurationMinutes float64 `json:"duration_minutes"`
		Heading         string  `json:"heading"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 4.3, res.DistanceMiles, 0.2)
	assert.InDelta(t, 2*res.DistanceMiles, res.DurationMinutes, 1e-9)
	assert.Equal(t, "E", res.Heading)

	_, err = run(t, "distance", "--from", "33.4", "--to", "33.4,-112")
	assert.Error(t, err)
	_, err = run(t, "distance", "--from", "95,-112", "--to", "33.4,-112")
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	isolateEnv(t)
	seed := writeSeed(t)

	routeFile := filepath.Join(t.TempDir(), "route.json")
	require.NoError(t, writeRoute(routeFile, domain.Route{
		ID:    "r1",
		Stops: []domain.RouteStop{{Sequence: 1, CustomerID: "c1", Status: domain.StopPending}},
	}))

	tests := map[string][]string{
		"plan bad date":         {"plan", "--seed", seed, "--company", "co1", "--date", "monday"},
		"missing seed":          {"plan", "--seed", filepath.Join(t.TempDir(), "nope.yaml"), "--company", "co1"},
		"bad now":               {"progress", "--route", routeFile, "--now", "yesterday"},
		"unknown event":         {"event", "--route", routeFile, "--type", "teleported", "--customer", "c1"},
		"invalid transition":    {"event", "--route", routeFile, "--type", "departed", "--customer", "c1"},
		"missing route file":    {"schedule", "--route", filepath.Join(t.TempDir(), "missing.json")},
		"out of range location": {"progress", "--route", routeFile, "--lat", "95"},
		"archive unconfigured":  {"breakdown", "--route", routeFile, "--archive"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, args...)
			assert.Error(t, err)
		})
	}
}
