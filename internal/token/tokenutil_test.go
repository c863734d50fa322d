package token

import "testing"

func TestCountNeverZeroForText(t *testing.T) {
	if got := Count("hello world"); got < 1 {
		t.Fatalf("expected positive count, got %d", got)
	}
}

func TestCountEmpty(t *testing.T) {
	if got := Count(""); got != 0 {
		t.Fatalf("expected 0 for empty text, got %d", got)
	}
}

func TestEstimateFast(t *testing.T) {
	if got := EstimateFast("word"); got != 1 {
		t.Fatalf("expected 1 for a short word, got %d", got)
	}

	long := "The process of transcription requires which of the following enzymes to proceed"
	estimate := EstimateFast(long)
	if estimate < 10 {
		t.Fatalf("expected at least word-count tokens, got %d", estimate)
	}
}

func TestCountScalesWithLength(t *testing.T) {
	short := Count("DNA")
	long := Count("DNA replication fork dynamics and coordination of enzymes at the lagging strand")
	if long <= short {
		t.Fatalf("longer text should count more tokens: %d vs %d", short, long)
	}
}
