// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package protocol

import (
	"io"

	"github.com/google/gitprotocolio"

	"github.com/aviator-co/wire-git/pktline"
)

// DemuxSideBand reads channel-tagged pkt-lines until the terminating
// flush-pkt (or a clean end of stream), writing channel-1 pack data to pack
// and channel-2 progress text to progress. A channel-3 frame aborts the
// stream with a RemoteError carrying the peer's message. progress may be nil.
func DemuxSideBand(r PacketReader, pack io.Writer, progress io.Writer) error {
	for {
		pkt, err := r.ReadPacket()
		if err == pktline.ErrFlush || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(pkt) == 0 {
			continue
		}
		switch sb := gitprotocolio.ParseSideBandPacket(pkt).(type) {
		case gitprotocolio.SideBandMainPacket:
			if _, err := pack.Write(sb.Bytes()); err != nil {
				return err
			}
		case gitprotocolio.SideBandReportPacket:
			if progress != nil {
				if _, err := progress.Write(sb.Bytes()); err != nil {
					return err
				}
			}
		case gitprotocolio.SideBandErrorPacket:
			return &RemoteError{Msg: string(sb.Bytes())}
		default:
			return protocolErrorf("unexpected non-sideband packet")
		}
	}
}
