package middleware

import (
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP определяет адрес клиента для ограничения частоты запросов.
// X-Forwarded-For и X-Real-IP учитываются только если соединение пришло
// от доверенного прокси, иначе ключом служит адрес соединения.
type ClientIP struct {
	trusted []netip.Prefix
}

// NewClientIP создает ClientIP со списком доверенных прокси
func NewClientIP(trusted []netip.Prefix) *ClientIP {
	return &ClientIP{trusted: trusted}
}

func (c *ClientIP) isTrusted(addr netip.Addr) bool {
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// FromRequest возвращает IP клиента
func (c *ClientIP) FromRequest(r *http.Request) string {
	peer, ok := remoteAddr(r.RemoteAddr)
	if !ok {
		return r.RemoteAddr
	}
	if !c.isTrusted(peer) {
		return peer.String()
	}

	// Цепочку читаем справа налево: первый не доверенный адрес добавлен нашим прокси
	if values := r.Header.Values("X-Forwarded-For"); len(values) > 0 {
		hops := strings.Split(strings.Join(values, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			addr = addr.Unmap()
			if !c.isTrusted(addr) {
				return addr.String()
			}
		}
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}

	return peer.String()
}

func remoteAddr(remote string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(remote); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}
