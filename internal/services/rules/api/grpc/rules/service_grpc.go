package rules

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rules.v1.RulesService"

const (
	RulesService_CancelDice_FullMethodName          = "/rules.v1.RulesService/CancelDice"
	RulesService_DualityRoll_FullMethodName         = "/rules.v1.RulesService/DualityRoll"
	RulesService_AdversaryRoll_FullMethodName       = "/rules.v1.RulesService/AdversaryRoll"
	RulesService_DamageRoll_FullMethodName          = "/rules.v1.RulesService/DamageRoll"
	RulesService_ArmCriticalOverride_FullMethodName = "/rules.v1.RulesService/ArmCriticalOverride"
	RulesService_SetTargets_FullMethodName          = "/rules.v1.RulesService/SetTargets"
	RulesService_SetSelection_FullMethodName        = "/rules.v1.RulesService/SetSelection"
	RulesService_ApplyDamage_FullMethodName         = "/rules.v1.RulesService/ApplyDamage"
	RulesService_ApplyHealing_FullMethodName        = "/rules.v1.RulesService/ApplyHealing"
	RulesService_ApplyDirectDamage_FullMethodName   = "/rules.v1.RulesService/ApplyDirectDamage"
	RulesService_Undo_FullMethodName                = "/rules.v1.RulesService/Undo"
	RulesService_ListUndoRecords_FullMethodName     = "/rules.v1.RulesService/ListUndoRecords"
	RulesService_PutActor_FullMethodName            = "/rules.v1.RulesService/PutActor"
	RulesService_PutScene_FullMethodName            = "/rules.v1.RulesService/PutScene"
	RulesService_PutToken_FullMethodName            = "/rules.v1.RulesService/PutToken"
	RulesService_DeleteToken_FullMethodName         = "/rules.v1.RulesService/DeleteToken"
	RulesService_ActivateScene_FullMethodName       = "/rules.v1.RulesService/ActivateScene"
)

// RulesServiceServer is the server API for rules.v1.RulesService.
type RulesServiceServer interface {
	CancelDice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DualityRoll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdversaryRoll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DamageRoll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ArmCriticalOverride(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetTargets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetSelection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyDamage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyHealing(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyDirectDamage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Undo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUndoRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutActor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutScene(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ActivateScene(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRulesServiceServer registers srv on s.
func RegisterRulesServiceServer(s grpc.ServiceRegistrar, srv RulesServiceServer) {
	s.RegisterService(&RulesService_ServiceDesc, srv)
}

type unaryMethod func(RulesServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RulesServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RulesServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// RulesService_ServiceDesc is the grpc.ServiceDesc for rules.v1.RulesService.
var RulesService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RulesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("CancelDice", RulesServiceServer.CancelDice),
		methodDesc("DualityRoll", RulesServiceServer.DualityRoll),
		methodDesc("AdversaryRoll", RulesServiceServer.AdversaryRoll),
		methodDesc("DamageRoll", RulesServiceServer.DamageRoll),
		methodDesc("ArmCriticalOverride", RulesServiceServer.ArmCriticalOverride),
		methodDesc("SetTargets", RulesServiceServer.SetTargets),
		methodDesc("SetSelection", RulesServiceServer.SetSelection),
		methodDesc("ApplyDamage", RulesServiceServer.ApplyDamage),
		methodDesc("ApplyHealing", RulesServiceServer.ApplyHealing),
		methodDesc("ApplyDirectDamage", RulesServiceServer.ApplyDirectDamage),
		methodDesc("Undo", RulesServiceServer.Undo),
		methodDesc("ListUndoRecords", RulesServiceServer.ListUndoRecords),
		methodDesc("PutActor", RulesServiceServer.PutActor),
		methodDesc("PutScene", RulesServiceServer.PutScene),
		methodDesc("PutToken", RulesServiceServer.PutToken),
		methodDesc("DeleteToken", RulesServiceServer.DeleteToken),
		methodDesc("ActivateScene", RulesServiceServer.ActivateScene),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rules/v1/rules.proto",
}

// Client is a typed client for rules.v1.RulesService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts []grpc.CallOption) (Resp, error) {
	var resp Resp
	in, err := encodePayload(req)
	if err != nil {
		return resp, err
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return resp, err
	}
	if err := decodePayload(out, &resp, false); err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *Client) CancelDice(ctx context.Context, req CancelDiceRequest, opts ...grpc.CallOption) (CancelDiceResponse, error) {
	return invoke[CancelDiceResponse](ctx, c.cc, RulesService_CancelDice_FullMethodName, req, opts)
}

func (c *Client) DualityRoll(ctx context.Context, req DualityRollRequest, opts ...grpc.CallOption) (DualityRollResponse, error) {
	return invoke[DualityRollResponse](ctx, c.cc, RulesService_DualityRoll_FullMethodName, req, opts)
}

func (c *Client) AdversaryRoll(ctx context.Context, req AdversaryRollRequest, opts ...grpc.CallOption) (AdversaryRollResponse, error) {
	return invoke[AdversaryRollResponse](ctx, c.cc, RulesService_AdversaryRoll_FullMethodName, req, opts)
}

func (c *Client) DamageRoll(ctx context.Context, req DamageRollRequest, opts ...grpc.CallOption) (DamageRollResponse, error) {
	return invoke[DamageRollResponse](ctx, c.cc, RulesService_DamageRoll_FullMethodName, req, opts)
}

func (c *Client) ArmCriticalOverride(ctx context.Context, req ArmCriticalOverrideRequest, opts ...grpc.CallOption) (ArmCriticalOverrideResponse, error) {
	return invoke[ArmCriticalOverrideResponse](ctx, c.cc, RulesService_ArmCriticalOverride_FullMethodName, req, opts)
}

func (c *Client) SetTargets(ctx context.Context, req SetTargetsRequest, opts ...grpc.CallOption) (SetTargetsResponse, error) {
	return invoke[SetTargetsResponse](ctx, c.cc, RulesService_SetTargets_FullMethodName, req, opts)
}

func (c *Client) SetSelection(ctx context.Context, req SetTargetsRequest, opts ...grpc.CallOption) (SetTargetsResponse, error) {
	return invoke[SetTargetsResponse](ctx, c.cc, RulesService_SetSelection_FullMethodName, req, opts)
}

func (c *Client) ApplyDamage(ctx context.Context, req ApplyDamageRequest, opts ...grpc.CallOption) (LedgerResponse, error) {
	return invoke[LedgerResponse](ctx, c.cc, RulesService_ApplyDamage_FullMethodName, req, opts)
}

func (c *Client) ApplyHealing(ctx context.Context, req ApplyHealingRequest, opts ...grpc.CallOption) (LedgerResponse, error) {
	return invoke[LedgerResponse](ctx, c.cc, RulesService_ApplyHealing_FullMethodName, req, opts)
}

func (c *Client) ApplyDirectDamage(ctx context.Context, req ApplyDirectDamageRequest, opts ...grpc.CallOption) (LedgerResponse, error) {
	return invoke[LedgerResponse](ctx, c.cc, RulesService_ApplyDirectDamage_FullMethodName, req, opts)
}

func (c *Client) Undo(ctx context.Context, req UndoRequest, opts ...grpc.CallOption) (UndoResponse, error) {
	return invoke[UndoResponse](ctx, c.cc, RulesService_Undo_FullMethodName, req, opts)
}

func (c *Client) ListUndoRecords(ctx context.Context, req ListUndoRecordsRequest, opts ...grpc.CallOption) (ListUndoRecordsResponse, error) {
	return invoke[ListUndoRecordsResponse](ctx, c.cc, RulesService_ListUndoRecords_FullMethodName, req, opts)
}

func (c *Client) PutActor(ctx context.Context, req PutActorRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, RulesService_PutActor_FullMethodName, req, opts)
	return err
}

func (c *Client) PutScene(ctx context.Context, req PutSceneRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, RulesService_PutScene_FullMethodName, req, opts)
	return err
}

func (c *Client) PutToken(ctx context.Context, req PutTokenRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, RulesService_PutToken_FullMethodName, req, opts)
	return err
}

func (c *Client) DeleteToken(ctx context.Context, req DeleteTokenRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, RulesService_DeleteToken_FullMethodName, req, opts)
	return err
}

func (c *Client) ActivateScene(ctx context.Context, req ActivateSceneRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, RulesService_ActivateScene_FullMethodName, req, opts)
	return err
}
