// Package sessiongrpc provides gRPC server interceptors that resolve the
// portal session.
//
// The interceptors read a bearer token from the "authorization" metadata (or
// the session cookie forwarded by a gateway), resolve it through core.Core,
// and store the identity in the handler context. Like the HTTP middleware they
// fail open: a missing or unverifiable token yields an anonymous call. Methods
// listed with WithRequiredMethods refuse anonymous calls with
// codes.Unauthenticated.
//
// # Basic Usage
//
//	v, err := verifier.NewHTTPVerifier(verifier.WithBaseURL(backendURL))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	interceptor, err := sessiongrpc.New(
//	    sessiongrpc.WithVerifier(v),
//	    sessiongrpc.WithRequiredMethods(
//	        "/portal.Appointments/Cancel",
//	    ),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// Handlers read the identity with GetIdentity:
//
//	func (s *server) Cancel(ctx context.Context, req *pb.CancelRequest) (*pb.CancelResponse, error) {
//	    id, err := sessiongrpc.GetIdentity(ctx)
//	    if err != nil {
//	        return nil, status.Error(codes.Internal, "no identity")
//	    }
//	    ...
//	}
package sessiongrpc
