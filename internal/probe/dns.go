package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// DNS classes reported by Classify.
const (
	ClassResolves   = "RESOLVES"
	ClassNoARecord  = "NO_A_RECORD"
	ClassNXDomain   = "NXDOMAIN"
	ClassServFail   = "SERVFAIL_or_TIMEOUT"
	ClassInvalidDNS = "INVALID_NAME"
)

var errNoHost = errors.New("host is required")

type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	CNAME         string
	HasNS         bool
	Nameservers   []string
	Class         string
	ResolverError string
}

// DNS resolves Host and maps the outcome onto a status.
type DNS struct {
	Host     string
	Timeout  time.Duration
	Resolver *net.Resolver
}

type dnsOptions struct {
	Host    string        `mapstructure:"host"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func NewDNS(opts Options) (Checker, error) {
	var o dnsOptions
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	o.Host = strings.TrimSpace(o.Host)
	if o.Host == "" {
		return nil, errNoHost
	}
	if strings.Contains(o.Host, "://") {
		return nil, fmt.Errorf("host %q must not be a URL", o.Host)
	}
	if o.Timeout <= 0 {
		o.Timeout = 3 * time.Second
	}
	return &DNS{Host: o.Host, Timeout: o.Timeout, Resolver: &net.Resolver{}}, nil
}

func (d *DNS) Name() string { return "dns " + d.Host }

func (d *DNS) Check(ctx context.Context) (domain.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	s := Classify(ctx, d.Resolver, d.Host)
	switch s.Class {
	case ClassResolves:
		return domain.OK(), nil
	case ClassNoARecord:
		return domain.Warning(fmt.Sprintf("%s has nameservers but no A/AAAA record", s.Domain)), nil
	case ClassNXDomain:
		return domain.Critical(fmt.Sprintf("%s does not exist (NXDOMAIN)", s.Domain)), nil
	default:
		return domain.Unknown(fmt.Sprintf("%s could not be resolved: %s", s.Domain, s.ResolverError)), nil
	}
}

// Classify looks up A/AAAA, CNAME and NS records for name.
func Classify(ctx context.Context, r *net.Resolver, name string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(name)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = ClassInvalidDNS
		return s
	}

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.IPs = ips
		s.Class = ClassResolves
	} else if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = ClassNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = ClassServFail
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == ClassNXDomain {
			s.Class = ClassNoARecord
		}
	}

	if s.Class == "" {
		switch {
		case s.HasAOrAAAA:
			s.Class = ClassResolves
		case s.HasNS:
			s.Class = ClassNoARecord
		case s.ResolverError != "":
			s.Class = ClassServFail
		default:
			s.Class = ClassNXDomain
		}
	}
	return s
}
