package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/livp123/logvault/internal/event"
)

// Kernel-log prefix used by modern syslog daemons:
//
//	2025-04-16T07:48:27.158323+05:30 host kernel: [12345.678] [UFW BLOCK] ...
var fwPrefixRE = regexp.MustCompile(
	`^(?P<timestamp>\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+[+-]\d{2}:\d{2})\s+(?P<hostname>\S+)\s+kernel:\s+\[\s*(?P<ktime>\d+\.\d+)\s*\]\s+(?P<message>.*)$`,
)

// fwDetailRE extracts the UFW action and packet fields. Fields after
// the action are optional and order-stable in kernel output.
var fwDetailRE = regexp.MustCompile(
	`\[UFW\s+(?P<action>\w+)\]\s+` +
		`(?:IN=(?P<in>\S*)\s*)?` +
		`(?:OUT=(?P<out>\S*)\s*)?` +
		`(?:MAC=(?P<mac>[0-9a-fA-F:]+)\s*)?` +
		`SRC=(?P<src>\S+)\s+DST=(?P<dst>\S+)\s+` +
		`(?:LEN=(?P<len>\d+)\s*)?` +
		`(?:TOS=0x[0-9a-fA-F]+\s*)?(?:PREC=0x[0-9a-fA-F]+\s*)?` +
		`(?:TTL=(?P<ttl>\d+)\s*)?` +
		`(?:ID=\S+\s*)?(?:DF\s*)?` +
		`.*?PROTO=(?P<proto>\S+)` +
		`(?:\s+SPT=(?P<spt>\d+))?(?:\s+DPT=(?P<dpt>\d+))?`,
)

// Firewall returns a parser for UFW kernel log lines. BLOCK and DENY
// actions map to fw_packet_denied at WARNING; ALLOW and AUDIT map to
// fw_packet_allowed at INFO.
func Firewall() Func {
	return firewallLine
}

func firewallLine(line string) (Event, bool) {
	if !strings.Contains(line, "[UFW ") {
		return Event{}, false
	}
	pm := fwPrefixRE.FindStringSubmatch(line)
	if pm == nil {
		return Event{}, false
	}
	pg := groups(fwPrefixRE, pm)

	dm := fwDetailRE.FindStringSubmatch(pg["message"])
	if dm == nil {
		return Event{}, false
	}
	dg := groups(fwDetailRE, dm)

	action := strings.ToUpper(dg["action"])
	name := event.EventFWPacketAllowed
	severity := event.SeverityInfo
	if action == "BLOCK" || action == "DENY" {
		name = event.EventFWPacketDenied
		severity = event.SeverityWarning
	}

	ts := time.Time{}
	if t, err := time.Parse(time.RFC3339Nano, pg["timestamp"]); err == nil {
		ts = t.UTC()
	}

	ctx := map[string]any{
		"action":           action,
		"hostname":         pg["hostname"],
		"kernel_timestamp": pg["ktime"],
		"src_ip":           dg["src"],
		"dst_ip":           dg["dst"],
		"protocol":         dg["proto"],
		"in_interface":     dg["in"],
		"out_interface":    dg["out"],
		"mac_address":      dg["mac"],
		"original_line":    line,
	}
	for key, raw := range map[string]string{"src_port": dg["spt"], "dst_port": dg["dpt"], "packet_len": dg["len"], "packet_ttl": dg["ttl"]} {
		if raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				ctx[key] = n
			}
		}
	}

	return Event{
		Category:  event.CategoryFirewall,
		Name:      name,
		Severity:  severity,
		Timestamp: ts,
		Message:   "UFW " + action + ": SRC=" + dg["src"] + " DST=" + dg["dst"] + " PROTO=" + dg["proto"],
		IPAddress: dg["src"],
		Context:   compact(ctx),
	}, true
}
