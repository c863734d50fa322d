package main

import "testing"

func TestChatPathFor(t *testing.T) {
	cases := map[string]string{
		"out/v4_genetics_qa.jsonl": "out/v4_genetics_qa_chat.jsonl",
		"questions.jsonl":          "questions_chat.jsonl",
	}
	for in, want := range cases {
		if got := chatPathFor(in); got != want {
			t.Fatalf("chatPathFor(%q) = %q, want %q", in, got, want)
		}
	}
}
