/*
Copyright 2025 The CertSentry Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package watchlist matches certificate domains against configured rules.
//
// Three shapes of domain pattern are understood:
//
//	*.example.com   subdomains of example.com, but not example.com itself
//	.example.com    example.com and its subdomains
//	example.com     same as .example.com
//
// Hosts match on exact, case-insensitive equality. IPs match exactly and
// CIDRs by containment. Rules are either global or owned by a named
// program; the first program whose rules match a domain claims it.
package watchlist

import (
	"fmt"
	"net/netip"
	"strings"
	"sync"

	"github.com/certsentry/certsentry/pkg/certsentry/config"
)

// Program is a named sub-watchlist, typically one bug-bounty scope.
type Program struct {
	Name     string
	Platform string
	Domains  []string
	Hosts    []string
	IPs      []netip.Addr
	CIDRs    []netip.Prefix
}

// Owner identifies the program a matched domain belongs to.
type Owner struct {
	Name     string
	Platform string
}

// Watchlist holds global rules plus ordered programs. A single writer (the
// platform sync loop) may add entries while the match pipeline reads.
type Watchlist struct {
	mu       sync.Mutex
	domains  []string
	hosts    []string
	ips      []netip.Addr
	cidrs    []netip.Prefix
	programs []*Program
}

// New returns an empty watchlist.
func New() *Watchlist {
	return &Watchlist{}
}

// FromConfig builds a watchlist from configuration, validating IPs and
// CIDRs up front.
func FromConfig(cfg *config.Config) (*Watchlist, error) {
	w := New()

	w.domains = normalizeAll(cfg.Watchlist.Domains)
	w.hosts = normalizeAll(cfg.Watchlist.Hosts)

	var err error
	if w.ips, err = parseIPs(cfg.Watchlist.IPs); err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}
	if w.cidrs, err = parseCIDRs(cfg.Watchlist.CIDRs); err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}

	for _, pc := range cfg.Programs {
		p := &Program{
			Name:     pc.Name,
			Platform: pc.Platform,
			Domains:  normalizeAll(pc.Domains),
			Hosts:    normalizeAll(pc.Hosts),
		}
		if p.IPs, err = parseIPs(pc.IPs); err != nil {
			return nil, fmt.Errorf("program %q: %w", pc.Name, err)
		}
		if p.CIDRs, err = parseCIDRs(pc.CIDRs); err != nil {
			return nil, fmt.Errorf("program %q: %w", pc.Name, err)
		}
		w.programs = append(w.programs, p)
	}
	return w, nil
}

// MatchesDomain reports whether host matches any global or program rule.
func (w *Watchlist) MatchesDomain(host string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.matchesDomain(normalize(host))
}

// ProgramForDomain returns the first program whose rules match host,
// in insertion order. A host matched only by global rules has no owner.
func (w *Watchlist) ProgramForDomain(host string) (Owner, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.programForDomain(normalize(host))
}

// MatchesIP reports whether ip matches any exact IP or CIDR rule.
func (w *Watchlist) MatchesIP(ip netip.Addr) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.matchesIP(ip)
}

// FirstMatch scans domains in order and returns the first watchlist hit.
// A non-nil allow hook can veto an otherwise matching domain, in which
// case scanning moves on to the next one. The lock is held across the
// whole record so a concurrent scope sync cannot split a decision.
func (w *Watchlist) FirstMatch(domains []string, allow func(string) bool) (string, Owner, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, d := range domains {
		h := normalize(d)
		if !w.matchesDomain(h) {
			continue
		}
		if allow != nil && !allow(h) {
			continue
		}
		owner, _ := w.programForDomain(h)
		return h, owner, true
	}
	return "", Owner{}, false
}

// AddDomainToProgram appends a domain pattern to the named program,
// creating the program when it does not exist yet. Duplicate entries
// within one program are dropped.
func (w *Watchlist) AddDomainToProgram(domain, program, platform string) bool {
	d := normalize(domain)
	if d == "" {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range w.programs {
		if p.Name != program {
			continue
		}
		for _, existing := range p.Domains {
			if existing == d {
				return false
			}
		}
		p.Domains = append(p.Domains, d)
		return true
	}

	w.programs = append(w.programs, &Program{
		Name:     program,
		Platform: platform,
		Domains:  []string{d},
	})
	return true
}

// Programs returns the program names in insertion order.
func (w *Watchlist) Programs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.programs))
	for _, p := range w.programs {
		names = append(names, p.Name)
	}
	return names
}

// Size returns the number of global rules and program rules.
func (w *Watchlist) Size() (global, programs int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	global = len(w.domains) + len(w.hosts) + len(w.ips) + len(w.cidrs)
	for _, p := range w.programs {
		programs += len(p.Domains) + len(p.Hosts) + len(p.IPs) + len(p.CIDRs)
	}
	return global, programs
}

func (w *Watchlist) matchesDomain(host string) bool {
	if ip, err := netip.ParseAddr(host); err == nil {
		return w.matchesIP(ip)
	}

	for _, h := range w.hosts {
		if host == h {
			return true
		}
	}
	for _, p := range w.domains {
		if matchesPattern(host, p) {
			return true
		}
	}
	for _, prog := range w.programs {
		if prog.matches(host) {
			return true
		}
	}
	return false
}

func (w *Watchlist) programForDomain(host string) (Owner, bool) {
	if ip, err := netip.ParseAddr(host); err == nil {
		for _, prog := range w.programs {
			if prog.matchesIP(ip) {
				return Owner{Name: prog.Name, Platform: prog.Platform}, true
			}
		}
		return Owner{}, false
	}

	for _, prog := range w.programs {
		if prog.matches(host) {
			return Owner{Name: prog.Name, Platform: prog.Platform}, true
		}
	}
	return Owner{}, false
}

func (w *Watchlist) matchesIP(ip netip.Addr) bool {
	for _, other := range w.ips {
		if ip == other {
			return true
		}
	}
	for _, network := range w.cidrs {
		if network.Contains(ip) {
			return true
		}
	}
	for _, prog := range w.programs {
		if prog.matchesIP(ip) {
			return true
		}
	}
	return false
}

func (p *Program) matches(host string) bool {
	for _, h := range p.Hosts {
		if host == h {
			return true
		}
	}
	for _, pattern := range p.Domains {
		if matchesPattern(host, pattern) {
			return true
		}
	}
	return false
}

func (p *Program) matchesIP(ip netip.Addr) bool {
	for _, other := range p.IPs {
		if ip == other {
			return true
		}
	}
	for _, network := range p.CIDRs {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func matchesPattern(host, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "*."):
		// Subdomains only: "*.x.com" matches "a.x.com" but not "x.com".
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasPrefix(pattern, "."):
		return host == pattern[1:] || strings.HasSuffix(host, pattern)
	default:
		return host == pattern || strings.HasSuffix(host, "."+pattern)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func parseIPs(in []string) ([]netip.Addr, error) {
	out := make([]netip.Addr, 0, len(in))
	for _, s := range in {
		ip, err := netip.ParseAddr(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid ip %q: %w", s, err)
		}
		out = append(out, ip)
	}
	return out, nil
}

func parseCIDRs(in []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(in))
	for _, s := range in {
		network, err := netip.ParsePrefix(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid cidr %q: %w", s, err)
		}
		out = append(out, network)
	}
	return out, nil
}
