package manager

import "renderd/internal/common/fsutil"

// SanityReport describes how the engine would be launched in this environment.
type SanityReport struct {
	Strategy     string   `json:"strategy"`
	Serverless   bool     `json:"serverless"`
	ExecPath     string   `json:"exec_path,omitempty"`
	Found        bool     `json:"found"`
	LibraryPaths []string `json:"library_paths,omitempty"`
	Flags        []string `json:"flags,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// SanityCheck resolves the launch strategy and checks that its executable
// exists. It does not launch anything and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	s := Resolve(m.env)
	r := SanityReport{
		Strategy:     s.String(),
		Serverless:   m.env.Serverless,
		LibraryPaths: s.LibraryPaths,
	}
	for _, f := range s.Flags() {
		r.Flags = append(r.Flags, f.String())
	}
	bin, err := executableFor(s)
	r.ExecPath = bin
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Found = fsutil.IsFile(bin)
	if !r.Found {
		r.Error = "engine executable is not a regular file"
	}
	return r
}
