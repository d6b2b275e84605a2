package shape

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reoring/reshape"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	set, err := LoadFile(filepath.Join("testdata", "clients.yaml"))
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewEngine(NewRegistry(set), opts...)
}

func decode(t *testing.T, js string) *reshape.Record {
	t.Helper()
	rec, err := reshape.DecodeJSON([]byte(js))
	require.NoError(t, err)
	return rec
}

const responsibleID = "01890a5d-ac96-774b-bcce-b302099a8057"

func TestEngine_ClientCreate(t *testing.T) {
	e := newTestEngine(t)
	in := decode(t, `{
		"name": "Ann",
		"phone": "123",
		"responsible": "`+responsibleID+`",
		"address": {"street": "Main", "number": 5, "commune": {"name": "Santiago", "region": "RM"}}
	}`)

	out, err := e.Apply(context.Background(), "client.create", in)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "phone", "responsible", "address", "created_at", "updated_at"}, out.Keys())
	want, err := reshape.ParseID(responsibleID)
	require.NoError(t, err)
	assert.Equal(t, want, out.Value("responsible"))
	assert.Equal(t, fixedNow, out.Value("created_at"))
	assert.Equal(t, fixedNow, out.Value("updated_at"))

	// input untouched
	assert.Equal(t, responsibleID, in.Value("responsible"))
	assert.False(t, in.Has("created_at"))
}

func TestEngine_ClientCreateFailures(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		name string
		in   string
		msg  string
		kind string
	}{
		{
			name: "required",
			in:   `{"name": "", "phone": ""}`,
			msg:  "Fields [name, phone] can't be empty string",
			kind: KindValidation,
		},
		{
			name: "nested required",
			in:   `{"name": "A", "phone": "1", "address": {"street": "", "commune": {"name": "S"}}}`,
			msg:  "Field [street] can't be empty string",
			kind: KindValidation,
		},
		{
			name: "nested require all",
			in:   `{"name": "A", "phone": "1", "address": {"street": "M", "commune": {"name": "S", "region": ""}}}`,
			msg:  "Field [region] can't be empty string",
			kind: KindValidation,
		},
		{
			name: "bad id",
			in:   `{"name": "A", "phone": "1", "responsible": "nope"}`,
			kind: KindInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Apply(context.Background(), "client.create", decode(t, tc.in))
			require.Error(t, err)
			if tc.msg != "" {
				assert.EqualError(t, err, tc.msg)
			}
			assert.Equal(t, tc.kind, ErrorKind(err))
		})
	}
}

func TestEngine_ClientQuery(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Apply(ctx, "client.query", reshape.Of("commune", "c1"))
	require.Error(t, err)
	assert.Equal(t, KindRequires, ErrorKind(err))
	assert.Contains(t, err.Error(), "requires")
	iss, _ := reshape.AsIssues(err)
	assert.Equal(t, "Cannot use 'commune' or 'responsible' without 'all'", iss[0].Message)

	_, err = e.Apply(ctx, "client.query", reshape.Of("name", "a", "all", "true"))
	require.Error(t, err)
	assert.ErrorIs(t, err, reshape.ErrConflict)
	assert.EqualError(t, err, "Fields [all | commune | responsible] can't be together with [name | phone | email | id] field/s")

	out, err := e.Apply(ctx, "client.query", reshape.Of("all", "true", "commune", "c1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"all", "commune"}, out.Keys())
}

func TestEngine_ClientOut(t *testing.T) {
	e := newTestEngine(t)
	id := reshape.NewID()
	resp, err := reshape.ParseID(responsibleID)
	require.NoError(t, err)

	in := reshape.Of(
		"id", id,
		"name", "Ann",
		"phone", "123",
		"responsible", resp,
		"email", "",
		"address", nil,
	)
	out, err := e.Apply(context.Background(), "client.out", in)
	require.NoError(t, err)

	assert.Equal(t, []string{"_id", "name", "phone", "responsible", "label", "kind"}, out.Keys())
	assert.Equal(t, id, out.Value("_id"))
	assert.Equal(t, responsibleID, out.Value("responsible"))
	assert.Equal(t, "Ann - 123", out.Value("label"))
	assert.Equal(t, "client", out.Value("kind"))
}

func TestEngine_GeneratedID(t *testing.T) {
	set, err := NewSet(Profile{Name: "p", NewFields: []NewField{
		{Name: "id", Generate: GenerateID},
		Literal("meta", map[string]any{"v": 1}),
		{Name: "blank"},
	}})
	require.NoError(t, err)
	e := NewEngine(NewRegistry(set))

	a, err := e.Apply(context.Background(), "p", nil)
	require.NoError(t, err)
	b, err := e.Apply(context.Background(), "p", nil)
	require.NoError(t, err)

	idA, ok := a.Value("id").(reshape.ID)
	require.True(t, ok)
	assert.NotEqual(t, idA, b.Value("id"))
	meta, ok := a.Sub("meta")
	require.True(t, ok)
	assert.Equal(t, 1, meta.Value("v"))
	assert.Equal(t, "", a.Value("blank"))
}

func TestEngine_NotFoundAndCanceled(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Apply(context.Background(), "missing", reshape.NewRecord(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, reshape.ErrNotFound)
	assert.EqualError(t, err, "Profile not found")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Apply(ctx, "client.out", reshape.NewRecord(0))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindCanceled, ErrorKind(err))
}

func TestEngine_ApplyAll(t *testing.T) {
	e := newTestEngine(t)
	recs := []*reshape.Record{
		reshape.Of("name", "A", "phone", "1"),
		reshape.Of("name", "", "phone", "2"),
		reshape.Of("name", "C", "phone", "3"),
	}

	_, err := e.ApplyAll(context.Background(), "client.create", recs)
	require.Error(t, err)
	var ie *ItemError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Index)
	assert.ErrorIs(t, err, reshape.ErrValidation)
	assert.Equal(t, "record 1: Fields [name] can't be empty string", err.Error())

	out, err := e.ApplyAll(context.Background(), "client.create", []*reshape.Record{recs[0], recs[2]})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "C", out[1].Value("name"))
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e := newTestEngine(t, WithMetrics(m))
	ctx := context.Background()

	_, err := e.Apply(ctx, "client.query", reshape.Of("name", "a"))
	require.NoError(t, err)
	_, err = e.Apply(ctx, "client.query", reshape.Of("name", "a", "all", "1"))
	require.Error(t, err)
	_, err = e.Apply(ctx, "nope", nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("client.query", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("client.query", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(KindConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(KindNotFound)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	n, err := testutil.GatherAndCount(reg,
		"reshape_shape_operations_total",
		"reshape_shape_errors_total",
		"reshape_shape_duration_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestEngine_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := newTestEngine(t, WithTracerProvider(tp))
	_, err := e.Apply(context.Background(), "client.create", decode(t,
		`{"name":"A","phone":"1","address":{"street":"M","commune":{"name":"S"}}}`))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	for _, s := range spans {
		assert.Equal(t, "shape.apply", s.Name)
	}
	// children end first
	assert.Equal(t, spans[2].SpanContext.SpanID(), spans[1].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())

	exporter.Reset()
	_, err = e.Apply(context.Background(), "client.create", reshape.Of("name", ""))
	require.Error(t, err)
	spans = exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, KindValidation, spans[0].Status.Description)
}

func TestEngine_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := newTestEngine(t, WithLogger(zap.New(core)))

	_, err := e.Apply(context.Background(), "client.create", reshape.Of("name", "A", "phone", "1"))
	require.NoError(t, err)
	assert.NotZero(t, logs.FilterMessage("record composed").Len())

	_, err = e.Apply(context.Background(), "client.create", reshape.Of("name", ""))
	require.Error(t, err)
	warn := logs.FilterMessage("profile application failed").All()
	require.Len(t, warn, 1)
	assert.Equal(t, KindValidation, warn[0].ContextMap()["kind"])
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, KindInternal, ErrorKind(errors.New("boom")))
	assert.Equal(t, KindInvalid, ErrorKind(reshape.Issues{{Code: reshape.CodeInvalidFormat}}))
}
