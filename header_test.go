package fasttransport

import "testing"

func TestHeaderEncodeDecode(t *testing.T) {
	h := Header{
		SessionToken:      0x1122334455667788,
		RpcId:             42,
		ClientSessionHint: 7,
		ServerSessionHint: 9,
		FragNumber:        3,
		TotalFrags:        10,
		ChannelId:         2,
		Direction:         serverToClient,
		RequestAck:        true,
		PleaseDrop:        false,
		PayloadType:       payloadData,
	}

	buf := make([]byte, headerSize)
	n := h.Encode(buf)
	if n != headerSize {
		t.Fatalf("expected %d bytes written, got %d", headerSize, n)
	}

	got, ok := DecodeHeader(buf)
	if !ok {
		t.Fatalf("decode failed")
	}
	if got != h {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	if _, ok := DecodeHeader(make([]byte, headerSize-1)); ok {
		t.Errorf("expected decode failure for short buffer")
	}
}

func TestAckResponseRoundtrip(t *testing.T) {
	ack := AckResponse{FirstMissingFrag: 5, StagingVector: 0b1011}
	buf := make([]byte, ackResponseSize)
	ack.Encode(buf)

	got, ok := DecodeAckResponse(buf)
	if !ok || got != ack {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, ack)
	}
}

func TestSessionOpenResponseRoundtrip(t *testing.T) {
	resp := SessionOpenResponse{MaxChannelId: 7}
	buf := make([]byte, sessionOpenResponseSize)
	resp.Encode(buf)

	got, ok := DecodeSessionOpenResponse(buf)
	if !ok || got != resp {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, resp)
	}
}
