package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

const (
	MetricsServiceName     = "dealanalyzer.v1.MetricsService"
	extractMetricsFullName = "/" + MetricsServiceName + "/ExtractMetrics"
	getAnalysisFullName    = "/" + MetricsServiceName + "/GetAnalysis"
)

// MetricsServiceServer is the server API for dealanalyzer.v1.MetricsService.
// Messages are google.protobuf.Struct so clients need no generated stubs.
type MetricsServiceServer interface {
	ExtractMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAnalysis(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// MetricsServiceDesc has no registered file descriptor behind Metadata, so
// reflection can list the service but not describe it.
var MetricsServiceDesc = grpc.ServiceDesc{
	ServiceName: MetricsServiceName,
	HandlerType: (*MetricsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractMetrics", Handler: extractMetricsHandler},
		{MethodName: "GetAnalysis", Handler: getAnalysisHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dealanalyzer/v1/metrics.proto",
}

func extractMetricsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MetricsServiceServer).ExtractMetrics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractMetricsFullName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MetricsServiceServer).ExtractMetrics(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getAnalysisHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MetricsServiceServer).GetAnalysis(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getAnalysisFullName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MetricsServiceServer).GetAnalysis(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterMetricsServiceServer registers srv on s.
func RegisterMetricsServiceServer(s grpc.ServiceRegistrar, srv MetricsServiceServer) {
	s.RegisterService(&MetricsServiceDesc, srv)
}

type MetricsService struct {
	repo   repository.AnalysisRepository
	inst   *Instrumentation
	logger *zap.Logger
}

// NewMetricsService builds the gRPC service. repo may be nil, in which case
// GetAnalysis reports Unavailable.
func NewMetricsService(repo repository.AnalysisRepository, inst *Instrumentation, logger *zap.Logger) *MetricsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsService{repo: repo, inst: inst, logger: logger}
}

// ExtractMetrics takes {"text": "..."} and returns
// {"metrics": [{"label": ..., "value": ...}, ...], "count": n} in label order.
func (s *MetricsService) ExtractMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	textVal, ok := req.GetFields()["text"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}
	if _, isString := textVal.GetKind().(*structpb.Value_StringValue); !isString {
		return nil, status.Error(codes.InvalidArgument, "text must be a string")
	}

	ms := metrics.Extract(textVal.GetStringValue())
	s.inst.ObserveMetrics(ms)

	entries := make([]any, 0, ms.Len())
	for _, m := range ms.Entries() {
		entries = append(entries, map[string]any{"label": string(m.Label), "value": m.Value})
	}
	out, err := structpb.NewStruct(map[string]any{
		"metrics": entries,
		"count":   ms.Len(),
	})
	if err != nil {
		s.logger.Warn("extract metrics encode failed", zap.Error(err))
		return nil, status.Error(codes.Internal, "encode metrics failed")
	}
	s.logger.Debug("extract metrics", zap.Int("chars", len(textVal.GetStringValue())), zap.Int("metrics", ms.Len()))
	return out, nil
}

// GetAnalysis takes {"id": "<uuid>"} and returns the stored analysis.
func (s *MetricsService) GetAnalysis(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, status.Error(codes.Unavailable, "analysis store not configured")
	}
	raw := req.GetFields()["id"].GetStringValue()
	if err := common.ValidateAndReturnError(common.NewValidator().Field("id", raw, common.Required, common.UUID)); err != nil {
		return nil, err
	}
	id := uuid.MustParse(raw)

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundError("analysis not found")
		}
		s.logger.Warn("get analysis failed", zap.String("analysis_id", raw), zap.Error(err))
		return nil, common.InternalError("get analysis failed")
	}

	b, err := json.Marshal(a)
	if err != nil {
		return nil, common.InternalErrorf("encode analysis: %v", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, common.InternalErrorf("encode analysis: %v", err)
	}
	return out, nil
}
