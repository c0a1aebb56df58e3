package security

import (
	"testing"
)

func TestAnalyzeCommandQuoteAware(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		wantSafe bool
	}{
		{
			name:     "semicolon inside single quotes",
			command:  "echo 'hello; world'",
			wantSafe: true,
		},
		{
			name:     "semicolon inside double quotes",
			command:  `echo "hello; world"`,
			wantSafe: true,
		},
		{
			name:     "semicolon outside quotes",
			command:  "echo 'hello'; echo 'world'",
			wantSafe: false,
		},
		{
			name:     "pipe inside quotes",
			command:  "echo 'cat | grep'",
			wantSafe: true,
		},
		{
			name:     "pipe outside quotes",
			command:  "echo hello | grep h",
			wantSafe: false,
		},
		{
			name:     "redirect inside quotes",
			command:  `echo "data > file"`,
			wantSafe: true,
		},
		{
			name:     "redirect outside quotes",
			command:  `echo "data" > file`,
			wantSafe: false,
		},
		{
			name:     "subshell inside quotes",
			command:  "echo '$(whoami)'",
			wantSafe: true,
		},
		{
			name:     "subshell outside quotes",
			command:  "echo $(whoami)",
			wantSafe: false,
		},
		{
			name:     "backtick inside single quotes",
			command:  "echo '`whoami`'",
			wantSafe: true,
		},
		{
			name:     "backtick outside quotes",
			command:  "echo `whoami`",
			wantSafe: false,
		},
		{
			name:     "escaped quote",
			command:  `echo "hello\"world"`,
			wantSafe: true,
		},
		{
			name:     "mixed quotes safe",
			command:  `echo "hello 'world'" 'foo "bar"'`,
			wantSafe: true,
		},
		{
			name:     "mixed quotes with external semicolon",
			command:  `echo "hello"; echo 'world'`,
			wantSafe: false,
		},
		{
			name:     "background inside quotes",
			command:  "echo 'sleep &'",
			wantSafe: true,
		},
		{
			name:     "background outside quotes",
			command:  "sleep 10 &",
			wantSafe: false,
		},
		{
			name:     "complex safe command",
			command:  `python3 -c "print('hello; world')" --arg="value|with|pipes"`,
			wantSafe: true,
		},
		{
			name:     "empty string",
			command:  "",
			wantSafe: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeCommandQuoteAware(tt.command)

			if result.IsSafe != tt.wantSafe {
				t.Errorf("AnalyzeCommandQuoteAware(%q).IsSafe = %v, want %v\nTokens: %v\nReason: %s",
					tt.command, result.IsSafe, tt.wantSafe, result.DangerousTokens, result.Reason)
			}
		})
	}
}

func BenchmarkAnalyzeCommandQuoteAware(b *testing.B) {
	cmd := `python3 -c "print('hello; world')" --arg="value|with|pipes"`
	for i := 0; i < b.N; i++ {
		AnalyzeCommandQuoteAware(cmd)
	}
}
