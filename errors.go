package fasttransport

import "errors"

// ErrRPCAborted is returned from ClientRpc.GetReply when the enclosing
// session was closed, after reaching its consecutive-timeout threshold,
// before the RPC completed.
var ErrRPCAborted = errors.New("fasttransport.rpcAborted")

// ErrBadAddress reports a service address that cannot be resolved, a
// configuration failure that fails synchronously rather than being
// recovered locally. Transport.ClientSend takes an already-resolved
// net.Addr and never returns it; the fasttransport-client command
// returns it when resolving its addr flag fails.
var ErrBadAddress = errors.New("fasttransport.badAddress")

// ErrTransportClosed is returned by calls made against a Transport
// after Close has been invoked.
var ErrTransportClosed = errors.New("fasttransport.transportClosed")
