package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
)

const maxChatLength = 100

// HandleChat processes C_CHAT: [S text].
func HandleChat(sess *net.Session, r *packet.Reader, deps *Deps) {
	text := strings.TrimSpace(r.ReadS())
	p, rm := inRoom(sess, deps)
	if p == nil || text == "" {
		return
	}
	if utf8.RuneCountInString(text) > maxChatLength {
		text = string([]rune(text)[:maxChatLength])
	}
	rm.Chat(p.VID, text)
}
