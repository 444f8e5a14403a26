package batch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Entry
		wantErr bool
	}{
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
		{
			name:    "only whitespace",
			content: "   \n\t\r\n   ",
			want:    nil,
		},
		{
			name: "paths only",
			content: `biology.md
history.txt`,
			want: []Entry{{Path: "biology.md"}, {Path: "history.txt"}},
		},
		{
			name: "mixed format",
			content: `biology.md = Cell Biology
history.txt
paper.pdf = Attention Is All You Need`,
			want: []Entry{
				{Path: "biology.md", Name: "Cell Biology"},
				{Path: "history.txt"},
				{Path: "paper.pdf", Name: "Attention Is All You Need"},
			},
		},
		{
			name:    "comments and blank lines",
			content: "# my reading list\n\n  notes.md  \n\n# done\n",
			want:    []Entry{{Path: "notes.md"}},
		},
		{
			name:    "windows line endings",
			content: "a.txt\r\nb.txt = B\r\n",
			want:    []Entry{{Path: "a.txt"}, {Path: "b.txt", Name: "B"}},
		},
		{
			name:    "multiple equals signs",
			content: `maths.md = 1 + 1 = 2`,
			want:    []Entry{{Path: "maths.md", Name: "1 + 1 = 2"}},
		},
		{
			name:    "empty name keeps default",
			content: `notes.md =`,
			want:    []Entry{{Path: "notes.md"}},
		},
		{
			name:    "missing path",
			content: "ok.md\n= Orphan name",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadBatchFileResolvesRelativePaths(t *testing.T) {
	tmpDir := t.TempDir()
	batchFile := filepath.Join(tmpDir, "batch.txt")
	content := "notes.md = Notes\n/abs/paper.pdf\n"
	if err := os.WriteFile(batchFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := ReadBatchFile(batchFile)
	if err != nil {
		t.Fatalf("ReadBatchFile() error = %v", err)
	}

	want := []Entry{
		{Path: filepath.Join(tmpDir, "notes.md"), Name: "Notes"},
		{Path: "/abs/paper.pdf"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadBatchFile() = %v, want %v", got, want)
	}
}

func TestReadBatchFile_FileNotFound(t *testing.T) {
	_, err := ReadBatchFile("/nonexistent/file.txt")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}
