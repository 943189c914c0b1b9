//go:build linux

package types

import (
	"io"
	"net"

	"github.com/kairos-io/diskplan/constants"
	"github.com/rs/zerolog/journald"
)

func isJournaldAvailable() bool {
	conn, err := net.Dial("unixgram", constants.JournalSock)
	if err != nil {
		return false
	}
	defer conn.Close()
	return true
}

func getJournaldWriter() io.Writer {
	return journald.NewJournalDWriter()
}
