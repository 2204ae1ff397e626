package ini

import (
	"strings"
	"testing"
)

func TestParseIni(t *testing.T) {
	input := `# comment
[fox]
nodes1 = a[1-2] : 8
nodes2 = b1 : 16
qos1 = normal : 1.0

[hadley]
nodes1 = c1 : 8
`
	ini, err := ParseIni(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(ini) != 2 || ini[0].Name != "fox" || ini[1].Name != "hadley" {
		t.Fatalf("Sections: %v", ini)
	}
	ns := ini[0].ValuesWithPrefix("nodes")
	if len(ns) != 2 || ns[0] != "a[1-2] : 8" || ns[1] != "b1 : 16" {
		t.Fatalf("ValuesWithPrefix: %v", ns)
	}
	if len(ini[0].ValuesWithPrefix("account")) != 0 {
		t.Fatal("Unexpected accounts")
	}
}

func TestParseIniFailures(t *testing.T) {
	bad := []string{
		"nodes1 = a\n",                       // var before section
		"[x]\nnodes1 = a\nnodes1 = b\n",      // duplicate var
		"[x]\nnodes1 = a\n[x]\nnodes2 = b\n", // duplicate section
		"[x]\nwhat even is this\n",
	}
	for i, input := range bad {
		if _, err := ParseIni(strings.NewReader(input)); err == nil {
			t.Fatalf("Case %d should fail", i)
		}
	}
}
