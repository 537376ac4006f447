// Package fasttransport implements a reliable, low-latency request/response
// transport layered on top of an unreliable, fixed-payload datagram Driver.
//
// The core is the reliability protocol: session, channel, and message state
// machines; sliding-window fragmentation, acknowledgment, and retransmission;
// timer-driven loss recovery; and dispatch of inbound datagrams to the right
// session/channel/message. Congestion control, flow-control negotiation,
// cryptographic authentication, multi-homing, and ordering across channels
// are explicitly out of scope.
//
// usage, server side:
//
//	driver, _ := NewUDPDriver(":9998")
//	transport := NewTransport(driver, nil, nil)
//	for {
//		rpc, err := transport.ServerRecv()
//		if err != nil {
//			break // ErrTransportClosed
//		}
//		rpc.ReplyPayload().Append(handle(rpc.RequestPayload()), nil)
//		rpc.SendReply()
//	}
//
// A Transport has no internal locking: ServerRecv, SendReply,
// ClientSend and GetReply must all be called from one goroutine.
//
// usage, client side:
//
//	driver, _ := NewUDPDriver(":0")
//	transport := NewTransport(driver, nil, nil)
//	rpc, err := transport.ClientSend(service, request, response)
//	err = rpc.GetReply()
package fasttransport
