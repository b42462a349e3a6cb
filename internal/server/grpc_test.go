package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

func dialBufconn(t *testing.T, repo repository.AnalysisRepository) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(MetricsServiceName, healthpb.HealthCheckResponse_SERVING)
	RegisterMetricsServiceServer(s, NewMetricsService(repo, NewInstrumentation(prometheus.NewRegistry(), nil), zap.NewNop()))
	reflection.Register(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestExtractMetricsRPC(t *testing.T) {
	conn := dialBufconn(t, nil)

	in, err := structpb.NewStruct(map[string]any{"text": dealText})
	require.NoError(t, err)
	out := &structpb.Struct{}
	require.NoError(t, conn.Invoke(context.Background(), extractMetricsFullName, in, out))

	assert.Equal(t, float64(4), out.GetFields()["count"].GetNumberValue())
	list := out.GetFields()["metrics"].GetListValue().GetValues()
	require.Len(t, list, 4)

	var labels []string
	for _, v := range list {
		labels = append(labels, v.GetStructValue().GetFields()["label"].GetStringValue())
	}
	assert.Equal(t, []string{"Asking Price", "NOI", "Estimated Cap Rate", "Estimated OpEx"}, labels)
	assert.Equal(t, "$1,200,000.00", list[0].GetStructValue().GetFields()["value"].GetStringValue())
}

func TestExtractMetricsRPC_InvalidArgument(t *testing.T) {
	conn := dialBufconn(t, nil)

	for _, fields := range []map[string]any{{}, {"text": 12}} {
		in, err := structpb.NewStruct(fields)
		require.NoError(t, err)
		err = conn.Invoke(context.Background(), extractMetricsFullName, in, &structpb.Struct{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}
}

func TestGetAnalysisRPC(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := ConnectDB(context.Background(), common.DatabaseConfig{Driver: repository.DriverSQLite, DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db, logger) })
	repo := repository.NewAnalysisRepository(db, logger)

	ctx := context.Background()
	a := &entity.Analysis{FileName: "om.pdf", FileExt: "pdf", ContentHash: "abc", Goal: "underwrite"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.FinishMetrics(ctx, a.ID, metrics.Extract(dealText)))

	conn := dialBufconn(t, repo)

	in, _ := structpb.NewStruct(map[string]any{"id": a.ID.String()})
	out := &structpb.Struct{}
	require.NoError(t, conn.Invoke(ctx, getAnalysisFullName, in, out))
	assert.Equal(t, "om.pdf", out.GetFields()["file_name"].GetStringValue())
	assert.Equal(t, "METRICS_OK", out.GetFields()["status"].GetStringValue())
	assert.Equal(t, "$84,000.00", out.GetFields()["metrics"].GetStructValue().GetFields()["NOI"].GetStringValue())

	in, _ = structpb.NewStruct(map[string]any{"id": uuid.NewString()})
	err = conn.Invoke(ctx, getAnalysisFullName, in, &structpb.Struct{})
	assert.Equal(t, codes.NotFound, status.Code(err))

	in, _ = structpb.NewStruct(map[string]any{"id": "nope"})
	err = conn.Invoke(ctx, getAnalysisFullName, in, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "must be a valid UUID")

	err = conn.Invoke(ctx, getAnalysisFullName, &structpb.Struct{}, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "is required")
}

func TestGetAnalysisRPC_NoStore(t *testing.T) {
	conn := dialBufconn(t, nil)
	in, _ := structpb.NewStruct(map[string]any{"id": uuid.NewString()})
	err := conn.Invoke(context.Background(), getAnalysisFullName, in, &structpb.Struct{})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealthRPC(t *testing.T) {
	conn := dialBufconn(t, nil)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: MetricsServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestReflectionListsButCannotDescribe(t *testing.T) {
	conn := dialBufconn(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	require.NoError(t, err)

	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	var names []string
	for _, svc := range resp.GetListServicesResponse().GetService() {
		names = append(names, svc.GetName())
	}
	assert.Contains(t, names, MetricsServiceName)

	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: MetricsServiceName},
	}))
	resp, err = stream.Recv()
	require.NoError(t, err)
	assert.NotNil(t, resp.GetErrorResponse())
}
