package ftmagic

import "testing"

const sampleDirect = "0:6:4d5a:MSEXE-1:CL_TYPE_MSEXE:CL_TYPE_MSEXE:80:120"
const sampleBody = "1:*:4d5a{-10}6768:Body-1:CL_TYPE_ANY:CL_TYPE_ANY"
const samplePartition = "4:0:414243:Part-1:CL_TYPE_PART_ANY:CL_TYPE_PART_ANY"

func TestParseRoundTrip(t *testing.T) {
	for _, raw := range []string{sampleDirect, samplePartition} {
		sig, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if got := sig.String(); got != raw {
			t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
		}
	}
}

func TestDirectCompareRequiresAbsoluteOffset(t *testing.T) {
	if _, err := Parse("0:*:4d5a:MSEXE-1:CL_TYPE_MSEXE:CL_TYPE_MSEXE"); err == nil {
		t.Fatal("expected error: direct compare requires an absolute offset")
	}
}

func TestPartitionCompareRequiresAbsoluteOffset(t *testing.T) {
	if _, err := Parse("4:EOF-5:414243:Part-1:CL_TYPE_PART_ANY:CL_TYPE_PART_ANY"); err == nil {
		t.Fatal("expected error: partition compare requires an absolute offset")
	}
}

func TestBodySignatureAllowsAnyOffset(t *testing.T) {
	sig, err := Parse(sampleBody)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.MagicType != BodySignature {
		t.Fatalf("unexpected magic type: %v", sig.MagicType)
	}
	if sig.BodySig == nil {
		t.Fatal("expected a parsed body signature")
	}
}

func TestUnrecognizedMagicType(t *testing.T) {
	if _, err := Parse("2:0:4d5a:Foo-1:CL_TYPE_ANY:CL_TYPE_ANY"); err == nil {
		t.Fatal("expected error for unrecognized magic type")
	}
}

func TestFeaturesDelegateToBodySig(t *testing.T) {
	direct, err := Parse(sampleDirect)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := direct.Features().MinLevel(); got != 0 {
		t.Fatalf("direct compare: got min level %d, want 0", got)
	}

	body, err := Parse(sampleBody)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := body.BodySig.Features()
	if got := body.Features(); got.MinLevel() != want.MinLevel() {
		t.Fatalf("body signature: Features() did not delegate to BodySig.Features()")
	}
}
