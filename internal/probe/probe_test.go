package probe

import (
	"errors"
	"testing"
)

func fakeWorld(cmdlines map[int32]string) (func() ([]int32, error), func(int32) (string, error)) {
	pids := func() ([]int32, error) {
		out := make([]int32, 0, len(cmdlines))
		for pid := range cmdlines {
			out = append(out, pid)
		}
		return out, nil
	}
	cmdline := func(pid int32) (string, error) {
		line, ok := cmdlines[pid]
		if !ok {
			return "", errors.New("no such process")
		}
		return line, nil
	}
	return pids, cmdline
}

func TestExactMatcher(t *testing.T) {
	m := ExactMatcher{}
	if !m.Match("/opt/apps/md-gateway --venue krx", "/opt/apps/MD-Gateway --venue KRX") {
		t.Fatalf("exact match must be case-insensitive")
	}
	if !m.Match("  /bin/app --x  ", "/bin/app --x") {
		t.Fatalf("exact match must trim surrounding whitespace")
	}
	if m.Match("/bin/app --x", "/bin/app") {
		t.Fatalf("argument mismatch must not match")
	}
}

func TestTokenMatcher(t *testing.T) {
	m := TokenMatcher{}
	if !m.Match(`/bin/app "--flag" value`, "/bin/app --flag value") {
		t.Fatalf("token match must tolerate quoting")
	}
	if !m.Match("/bin/app   --x", "/bin/app --x") {
		t.Fatalf("token match must tolerate whitespace runs")
	}
	if m.Match("/bin/app --x extra", "/bin/app --x") {
		t.Fatalf("token count mismatch must not match")
	}
	if m.Match("", "") {
		t.Fatalf("empty command lines must not match")
	}
}

func TestFindIn(t *testing.T) {
	pids, cmdline := fakeWorld(map[int32]string{
		10: "/bin/other",
		20: "/opt/apps/strategy --id alpha",
		30: "/bin/third",
	})
	p := NewWith(ExactMatcher{}, pids, cmdline)

	snap := p.Snapshot()
	pid, ok := p.FindIn(snap, "/opt/apps/strategy --id alpha")
	if !ok || pid != 20 {
		t.Fatalf("FindIn = (%d, %v), want (20, true)", pid, ok)
	}
	if _, ok := p.FindIn(snap, "/opt/apps/strategy --id beta"); ok {
		t.Fatalf("unmatched command line must not be found")
	}
}

func TestFindInSkipsUnreadablePids(t *testing.T) {
	cmdlines := map[int32]string{40: "/bin/target"}
	_, cmdline := fakeWorld(cmdlines)
	p := NewWith(ExactMatcher{}, nil, cmdline)

	// 5 and 6 are not readable; the scan must keep going.
	pid, ok := p.FindIn([]int32{5, 6, 40}, "/bin/target")
	if !ok || pid != 40 {
		t.Fatalf("FindIn with unreadable pids = (%d, %v), want (40, true)", pid, ok)
	}
}

func TestSnapshotEnumerationFailure(t *testing.T) {
	p := NewWith(ExactMatcher{}, func() ([]int32, error) {
		return nil, errors.New("boom")
	}, nil)
	if got := p.Snapshot(); got != nil {
		t.Fatalf("Snapshot on failure = %v, want nil", got)
	}
}

func TestAliveIn(t *testing.T) {
	snap := []int32{1, 7, 42}
	if !AliveIn(snap, 7) {
		t.Fatalf("7 should be alive")
	}
	if AliveIn(snap, 8) {
		t.Fatalf("8 should not be alive")
	}
	if AliveIn(nil, 1) {
		t.Fatalf("nothing is alive in a nil snapshot")
	}
}
