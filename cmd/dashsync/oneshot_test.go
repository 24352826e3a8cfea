package main

import (
	"strings"
	"testing"
)

func TestExecCmd_HelpExplainsRebalanceToggle(t *testing.T) {
	cmd := execCmd()
	if !strings.Contains(cmd.Long, "always asks to enable") {
		t.Error("help should say a one-shot toggle_rebalance requests enabling")
	}
	if !strings.Contains(cmd.Long, "the service actually applied") {
		t.Error("help should say the service's answer decides the result")
	}
	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("exec without a command must be rejected")
	}
	if err := cmd.Args(cmd, []string{"set_leverage", "5", "extra"}); err == nil {
		t.Error("exec with more than one argument must be rejected")
	}
}
