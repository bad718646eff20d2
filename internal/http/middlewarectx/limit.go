package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Причины отказа фильтра.
const (
	ReasonRateLimit = "rate_limit"
	ReasonBot       = "bot"
	ReasonBlocked   = "blocked"
)

// visitor хранит корзину токенов одного клиента.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Admission — фильтр входящих запросов: блок-лист адресов, распознавание
// ботов по User-Agent и ограничение частоты на каждый IP.
type Admission struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	swept    time.Time

	blockedAgents []string
	blockedIPs    map[string]struct{}
	trusted       []netip.Prefix

	now     func() time.Time
	metrics *Metrics
	log     *slog.Logger
}

// NewAdmission создаёт фильтр по настройкам. Корзина на IP вмещает
// cfg.Capacity токенов и пополняется на cfg.Refill за cfg.Interval.
// metrics может быть nil.
func NewAdmission(cfg config.Admission, log *slog.Logger, metrics *Metrics) *Admission {
	limit := rate.Inf
	if cfg.Refill > 0 && cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval / time.Duration(cfg.Refill))
	}

	blockedIPs := make(map[string]struct{}, len(cfg.BlockedIPs))
	for _, ip := range cfg.BlockedIPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			blockedIPs[ip] = struct{}{}
		}
	}
	agents := make([]string, 0, len(cfg.BlockedUserAgents))
	for _, ua := range cfg.BlockedUserAgents {
		if ua = strings.ToLower(strings.TrimSpace(ua)); ua != "" {
			agents = append(agents, ua)
		}
	}

	trusted := make([]netip.Prefix, 0, len(cfg.TrustedProxies))
	for _, entry := range cfg.TrustedProxies {
		prefix, err := parsePrefix(strings.TrimSpace(entry))
		if err != nil {
			log.Warn("skipping trusted proxy", slog.String("value", entry), sl.Err(err))
			continue
		}
		trusted = append(trusted, prefix)
	}

	idle := 10 * cfg.Interval
	if idle <= 0 {
		idle = 10 * time.Minute
	}

	return &Admission{
		visitors:      make(map[string]*visitor),
		limit:         limit,
		burst:         cfg.Capacity,
		idleTTL:       idle,
		blockedAgents: agents,
		blockedIPs:    blockedIPs,
		trusted:       trusted,
		now:           time.Now,
		metrics:       metrics,
		log:           log,
	}
}

// Middleware возвращает обёртку для роутера.
func (a *Admission) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middlewarectx.Admission"

		ip := a.clientIP(r)
		reason := a.decide(ip, r.UserAgent())
		if reason == "" {
			next.ServeHTTP(w, r)
			return
		}

		a.log.Warn("request denied",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("ip", ip),
			slog.String("reason", reason),
		)
		if a.metrics != nil {
			a.metrics.denied.WithLabelValues(reason).Inc()
		}

		switch reason {
		case ReasonRateLimit:
			response.Deny(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
		case ReasonBot:
			response.Deny(w, r, http.StatusForbidden, "Bot detected")
		default:
			response.Deny(w, r, http.StatusForbidden, "Access denied")
		}
	})
}

// decide возвращает причину отказа или пустую строку.
func (a *Admission) decide(ip, userAgent string) string {
	if _, ok := a.blockedIPs[ip]; ok {
		return ReasonBlocked
	}

	ua := strings.ToLower(userAgent)
	for _, bad := range a.blockedAgents {
		if strings.Contains(ua, bad) {
			return ReasonBot
		}
	}

	if !a.allow(ip) {
		return ReasonRateLimit
	}
	return ""
}

func (a *Admission) allow(ip string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if now.Sub(a.swept) > a.idleTTL {
		for key, v := range a.visitors {
			if now.Sub(v.lastSeen) > a.idleTTL {
				delete(a.visitors, key)
			}
		}
		a.swept = now
	}

	v, ok := a.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(a.limit, a.burst)}
		a.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// clientIP возвращает адрес клиента. Заголовки X-Forwarded-For и
// X-Real-IP учитываются только от доверенных прокси, иначе ключом
// служит адрес соединения.
func (a *Admission) clientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !a.isTrusted(peer) {
		return peer
	}

	// Прокси дописывают адрес справа: первый недоверенный адрес с конца
	// и есть клиент.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				return peer
			}
			if !a.isTrusted(addr.String()) {
				return addr.String()
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if addr, err := netip.ParseAddr(realIP); err == nil {
			return addr.String()
		}
	}
	return peer
}

func (a *Admission) isTrusted(ip string) bool {
	if len(a.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parsePrefix принимает как подсеть (10.0.0.0/8), так и одиночный адрес.
func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
