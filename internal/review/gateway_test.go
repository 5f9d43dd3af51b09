package review

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nflow-dev/nflow/internal/github"
)

type fakeHost struct {
	pulls     []github.PullRequest
	listErr   error
	listArgs  [2]string
	created   *github.NewPullRequest
	createErr error
	runs      []github.CheckRun
	combined  *github.CombinedStatus
	commits   []github.Commit
	merged    *github.MergeResult
	mergeArgs []string
	labels    map[string]github.Label
	labelErr  error
	attached  []string
	assignees []string
	login     string
	calls     []string
}

func (f *fakeHost) ListPulls(ctx context.Context, head, base string) ([]github.PullRequest, error) {
	f.calls = append(f.calls, "ListPulls")
	f.listArgs = [2]string{head, base}
	return f.pulls, f.listErr
}

func (f *fakeHost) CreatePull(ctx context.Context, pr github.NewPullRequest) (*github.PullRequest, error) {
	f.calls = append(f.calls, "CreatePull")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &pr
	return &github.PullRequest{Number: 9, Title: pr.Title, Head: github.Ref{Ref: pr.Head}, Base: github.Ref{Ref: pr.Base}, HTMLURL: "https://github.com/o/r/pull/9"}, nil
}

func (f *fakeHost) GetPull(ctx context.Context, number int) (*github.PullRequest, error) {
	f.calls = append(f.calls, "GetPull")
	for i := range f.pulls {
		if f.pulls[i].Number == number {
			return &f.pulls[i], nil
		}
	}
	return nil, &github.APIError{StatusCode: 404, Message: "Not Found"}
}

func (f *fakeHost) MergePull(ctx context.Context, number int, title, message, method string) (*github.MergeResult, error) {
	f.calls = append(f.calls, "MergePull")
	f.mergeArgs = []string{title, message, method}
	return f.merged, nil
}

func (f *fakeHost) ListPullCommits(ctx context.Context, number int) ([]github.Commit, error) {
	return f.commits, nil
}

func (f *fakeHost) CombinedStatus(ctx context.Context, ref string) (*github.CombinedStatus, error) {
	f.calls = append(f.calls, "CombinedStatus")
	return f.combined, nil
}

func (f *fakeHost) CheckRuns(ctx context.Context, ref string) ([]github.CheckRun, error) {
	f.calls = append(f.calls, "CheckRuns")
	return f.runs, nil
}

func (f *fakeHost) GetLabel(ctx context.Context, name string) (*github.Label, error) {
	if f.labelErr != nil {
		return nil, f.labelErr
	}
	if l, ok := f.labels[name]; ok {
		return &l, nil
	}
	return nil, &github.APIError{StatusCode: 404, Message: "Not Found"}
}

func (f *fakeHost) CreateLabel(ctx context.Context, label github.Label) (*github.Label, error) {
	f.calls = append(f.calls, "CreateLabel")
	if f.labels == nil {
		f.labels = make(map[string]github.Label)
	}
	f.labels[label.Name] = label
	return &label, nil
}

func (f *fakeHost) AddLabels(ctx context.Context, number int, labels []string) ([]github.Label, error) {
	f.attached = append(f.attached, labels...)
	return nil, nil
}

func (f *fakeHost) AddAssignees(ctx context.Context, number int, logins []string) error {
	f.assignees = append(f.assignees, logins...)
	return nil
}

func (f *fakeHost) AuthenticatedUser(ctx context.Context) (*github.User, error) {
	return &github.User{Login: f.login}, nil
}

func TestFindExisting(t *testing.T) {
	ctx := context.Background()

	t.Run("exact head and base", func(t *testing.T) {
		host := &fakeHost{pulls: []github.PullRequest{
			{Number: 1, Head: github.Ref{Ref: "feature/ABC-1_x"}, Base: github.Ref{Ref: "main"}},
			{Number: 2, Head: github.Ref{Ref: "feature/ABC-1_x", SHA: "sha2"}, Base: github.Ref{Ref: "develop"}},
		}}
		pr, err := NewGateway(host, "acme").FindExisting(ctx, "feature/ABC-1_x", "develop")
		if err != nil {
			t.Fatalf("FindExisting() error = %v", err)
		}
		if pr == nil || pr.Number != 2 || pr.HeadSHA != "sha2" {
			t.Errorf("FindExisting() = %+v, want #2", pr)
		}
		if host.listArgs != [2]string{"acme:feature/ABC-1_x", "develop"} {
			t.Errorf("ListPulls args = %v", host.listArgs)
		}
	})

	t.Run("absent is not an error", func(t *testing.T) {
		pr, err := NewGateway(&fakeHost{}, "acme").FindExisting(ctx, "feature/ABC-1_x", "develop")
		if err != nil || pr != nil {
			t.Errorf("FindExisting() = %+v, %v; want nil, nil", pr, err)
		}
	})

	t.Run("remote failure is an error", func(t *testing.T) {
		host := &fakeHost{listErr: errors.New("boom")}
		if _, err := NewGateway(host, "acme").FindExisting(ctx, "h", "b"); err == nil {
			t.Error("FindExisting() error = nil, want remote failure")
		}
	})
}

func TestCreate(t *testing.T) {
	host := &fakeHost{}
	pr, err := NewGateway(host, "acme").Create(context.Background(), "feature/ABC-1_x", "develop", "ABC-1: X", "body")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if pr.Number != 9 || pr.URL == "" {
		t.Errorf("Create() = %+v", pr)
	}
	if host.created.Head != "feature/ABC-1_x" || host.created.Base != "develop" || host.created.Body != "body" {
		t.Errorf("created = %+v", host.created)
	}

	host = &fakeHost{createErr: &github.APIError{StatusCode: 422, Message: "Validation Failed"}}
	if _, err := NewGateway(host, "acme").Create(context.Background(), "h", "b", "t", ""); err == nil {
		t.Error("Create() error = nil, want rejection")
	}
}

func TestDetailsMergeable(t *testing.T) {
	yes, no := true, false
	host := &fakeHost{pulls: []github.PullRequest{
		{Number: 1, Mergeable: &yes},
		{Number: 2, Mergeable: &no},
		{Number: 3},
	}}
	g := NewGateway(host, "acme")
	ctx := context.Background()

	for number, want := range map[int]*bool{1: &yes, 2: &no, 3: nil} {
		pr, err := g.Details(ctx, number)
		if err != nil {
			t.Fatalf("Details(%d) error = %v", number, err)
		}
		switch {
		case want == nil && pr.Mergeable != nil:
			t.Errorf("Details(%d).Mergeable = %v, want nil", number, *pr.Mergeable)
		case want != nil && (pr.Mergeable == nil || *pr.Mergeable != *want):
			t.Errorf("Details(%d).Mergeable = %v, want %v", number, pr.Mergeable, *want)
		}
	}
}

func TestAggregatedStatus(t *testing.T) {
	run := func(status, conclusion string) github.CheckRun {
		return github.CheckRun{Name: "ci", Status: status, Conclusion: conclusion}
	}

	tests := []struct {
		name         string
		runs         []github.CheckRun
		combined     *github.CombinedStatus
		want         CheckState
		wantFallback bool
	}{
		{"all passed", []github.CheckRun{run("completed", "success"), run("completed", "skipped")}, nil, CheckSuccess, false},
		{"one failed", []github.CheckRun{run("completed", "success"), run("completed", "failure")}, nil, CheckFailure, false},
		{"cancelled", []github.CheckRun{run("completed", "cancelled")}, nil, CheckFailure, false},
		{"timed out", []github.CheckRun{run("completed", "timed_out")}, nil, CheckFailure, false},
		{"failure beats pending", []github.CheckRun{run("in_progress", ""), run("completed", "failure")}, nil, CheckFailure, false},
		{"queued", []github.CheckRun{run("completed", "success"), run("queued", "")}, nil, CheckPending, false},
		{"in progress", []github.CheckRun{run("in_progress", "")}, nil, CheckPending, false},
		{"no conclusion", []github.CheckRun{run("completed", "")}, nil, CheckPending, false},
		{"legacy empty", nil, &github.CombinedStatus{State: "pending", TotalCount: 0}, CheckSuccess, true},
		{"legacy success", nil, &github.CombinedStatus{State: "success", TotalCount: 1}, CheckSuccess, true},
		{"legacy pending", nil, &github.CombinedStatus{State: "pending", TotalCount: 2}, CheckPending, true},
		{"legacy failure", nil, &github.CombinedStatus{State: "failure", TotalCount: 1}, CheckFailure, true},
		{"legacy error", nil, &github.CombinedStatus{State: "error", TotalCount: 1}, CheckError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &fakeHost{runs: tt.runs, combined: tt.combined}
			got, err := NewGateway(host, "acme").AggregatedStatus(context.Background(), "sha")
			if err != nil {
				t.Fatalf("AggregatedStatus() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AggregatedStatus() = %q, want %q", got, tt.want)
			}
			if fellBack := slices.Contains(host.calls, "CombinedStatus"); fellBack != tt.wantFallback {
				t.Errorf("consulted legacy status = %v, want %v", fellBack, tt.wantFallback)
			}
		})
	}
}

func TestCheckStateBlocking(t *testing.T) {
	for state, want := range map[CheckState]bool{
		CheckSuccess: false,
		CheckPending: false,
		CheckFailure: true,
		CheckError:   true,
	} {
		if got := state.Blocking(); got != want {
			t.Errorf("%s.Blocking() = %v, want %v", state, got, want)
		}
	}
}

func TestMerge(t *testing.T) {
	host := &fakeHost{merged: &github.MergeResult{Merged: true}}
	if err := NewGateway(host, "acme").Merge(context.Background(), 4, "T (#4)", "* a"); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !slices.Equal(host.mergeArgs, []string{"T (#4)", "* a", github.MergeMethodSquash}) {
		t.Errorf("MergePull args = %v", host.mergeArgs)
	}

	host = &fakeHost{merged: &github.MergeResult{Merged: false, Message: "Head branch was modified"}}
	err := NewGateway(host, "acme").Merge(context.Background(), 4, "T", "")
	if !errors.Is(err, ErrNotMerged) {
		t.Errorf("Merge() error = %v, want ErrNotMerged", err)
	}
}

func TestCommitMessages(t *testing.T) {
	host := &fakeHost{commits: []github.Commit{
		{Commit: github.CommitDetail{Message: "Add login form\n\nLonger body"}},
		{Commit: github.CommitDetail{Message: "   "}},
		{Commit: github.CommitDetail{Message: ""}},
		{Commit: github.CommitDetail{Message: "\nFix typo  "}},
	}}
	got, err := NewGateway(host, "acme").CommitMessages(context.Background(), 1)
	if err != nil {
		t.Fatalf("CommitMessages() error = %v", err)
	}
	if want := []string{"Add login form", "Fix typo"}; !slices.Equal(got, want) {
		t.Errorf("CommitMessages() = %q, want %q", got, want)
	}
}

func TestEnsureLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing label with translated color", func(t *testing.T) {
		host := &fakeHost{}
		if err := NewGateway(host, "acme").EnsureLabel(ctx, "Bug", "red"); err != nil {
			t.Fatalf("EnsureLabel() error = %v", err)
		}
		if got := host.labels["Bug"].Color; got != "ff7369" {
			t.Errorf("created color = %q, want ff7369", got)
		}
	})

	t.Run("existing label untouched", func(t *testing.T) {
		host := &fakeHost{labels: map[string]github.Label{"Bug": {Name: "Bug", Color: "000000"}}}
		if err := NewGateway(host, "acme").EnsureLabel(ctx, "Bug", "red"); err != nil {
			t.Fatalf("EnsureLabel() error = %v", err)
		}
		if slices.Contains(host.calls, "CreateLabel") {
			t.Error("CreateLabel called for existing label")
		}
	})

	t.Run("lookup failure is reported", func(t *testing.T) {
		host := &fakeHost{labelErr: &github.APIError{StatusCode: 500, Message: "oops"}}
		if err := NewGateway(host, "acme").EnsureLabel(ctx, "Bug", "red"); err == nil {
			t.Error("EnsureLabel() error = nil, want failure")
		}
		if slices.Contains(host.calls, "CreateLabel") {
			t.Error("CreateLabel called after a non-404 failure")
		}
	})
}

func TestLabelColor(t *testing.T) {
	if got := LabelColor("blue"); got != "529cca" {
		t.Errorf("LabelColor(blue) = %q", got)
	}
	for _, c := range []string{"", "chartreuse"} {
		if got := LabelColor(c); got != DefaultLabelColor {
			t.Errorf("LabelColor(%q) = %q, want default", c, got)
		}
	}
}

func TestAssignSelf(t *testing.T) {
	host := &fakeHost{login: "octocat"}
	login, err := NewGateway(host, "acme").AssignSelf(context.Background(), 3)
	if err != nil {
		t.Fatalf("AssignSelf() error = %v", err)
	}
	if login != "octocat" || !slices.Equal(host.assignees, []string{"octocat"}) {
		t.Errorf("AssignSelf() = %q, assignees %v", login, host.assignees)
	}
}
