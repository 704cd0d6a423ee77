package cucumber

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/cucumber/godog"

	"github.com/GreedyKomodoDragon/s3search/internal/cli"
	"github.com/GreedyKomodoDragon/s3search/internal/config"
	"github.com/GreedyKomodoDragon/s3search/internal/objectstore"
)

// TestContext holds the state of one scenario
type TestContext struct {
	store    *objectstore.MockObjectStore
	env      map[string]string
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exitCode int
}

// NewTestContext creates a new test context with a complete environment
func NewTestContext() *TestContext {
	return &TestContext{
		env: map[string]string{
			config.EnvEndpoint:        "http://localhost:9000",
			config.EnvAccessKeyID:     "minioadmin",
			config.EnvSecretAccessKey: "minioadmin",
			config.EnvRegion:          "us-east-1",
			config.EnvLogLevel:        "error",
		},
		exitCode: -1,
	}
}

// InitializeScenario initializes each cucumber scenario
func InitializeScenario(ctx *godog.ScenarioContext) {
	testCtx := NewTestContext()

	// Setup steps
	ctx.Step(`^an empty bucket "([^"]*)"$`, testCtx.anEmptyBucket)
	ctx.Step(`^a bucket "([^"]*)" containing:$`, testCtx.aBucketContaining)
	ctx.Step(`^the environment variable "([^"]*)" is not set$`, testCtx.theEnvironmentVariableIsNotSet)
	ctx.Step(`^fetching "([^"]*)" fails$`, testCtx.fetchingFails)

	// Action steps
	ctx.Step(`^I search bucket "([^"]*)" for "([^"]*)"$`, testCtx.iSearchBucketFor)
	ctx.Step(`^I search bucket "([^"]*)" for "([^"]*)" under prefix "([^"]*)"$`, testCtx.iSearchBucketForUnderPrefix)
	ctx.Step(`^I run s3search with only the argument "([^"]*)"$`, testCtx.iRunWithOnlyTheArgument)

	// Verification steps
	ctx.Step(`^the exit status is (\d+)$`, testCtx.theExitStatusIs)
	ctx.Step(`^the output is:$`, testCtx.theOutputIs)
	ctx.Step(`^no matches are reported$`, testCtx.noMatchesAreReported)
	ctx.Step(`^the object "([^"]*)" is never fetched$`, testCtx.theObjectIsNeverFetched)
	ctx.Step(`^the usage message is printed$`, testCtx.theUsageMessageIsPrinted)
	ctx.Step(`^the bucket is never listed$`, testCtx.theBucketIsNeverListed)
	ctx.Step(`^the error output mentions "([^"]*)"$`, testCtx.theErrorOutputMentions)
}

func (tc *TestContext) anEmptyBucket(bucket string) error {
	tc.store = objectstore.NewMockObjectStore(bucket)
	return nil
}

func (tc *TestContext) aBucketContaining(bucket string, table *godog.Table) error {
	tc.store = objectstore.NewMockObjectStore(bucket)

	if len(table.Rows) == 0 {
		return errors.New("object table needs a header row")
	}
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 2 {
			return fmt.Errorf("expected key and content columns, got %d cells", len(row.Cells))
		}
		tc.store.AddFile(row.Cells[0].Value, []byte(row.Cells[1].Value))
	}
	return nil
}

func (tc *TestContext) theEnvironmentVariableIsNotSet(name string) error {
	delete(tc.env, name)
	return nil
}

func (tc *TestContext) fetchingFails(key string) error {
	if tc.store == nil {
		return errors.New("no bucket defined")
	}
	tc.store.SetDownloadError(key, errors.New("connection reset by peer"))
	return nil
}

func (tc *TestContext) iSearchBucketFor(bucket, term string) error {
	return tc.run(bucket, term)
}

func (tc *TestContext) iSearchBucketForUnderPrefix(bucket, term, prefix string) error {
	return tc.run(bucket, term, prefix)
}

func (tc *TestContext) iRunWithOnlyTheArgument(arg string) error {
	return tc.run(arg)
}

func (tc *TestContext) run(args ...string) error {
	if tc.store == nil {
		return errors.New("no bucket defined")
	}

	tc.exitCode = cli.Execute(context.Background(), args,
		cli.WithOutput(&tc.stdout, &tc.stderr),
		cli.WithConfigLoader(func() (*config.Config, error) {
			return config.FromMap(tc.env)
		}),
		cli.WithStoreFactory(func(context.Context, *config.Config, *slog.Logger) (objectstore.ObjectStore, error) {
			return tc.store, nil
		}),
	)
	return nil
}

func (tc *TestContext) theExitStatusIs(code int) error {
	if tc.exitCode != code {
		return fmt.Errorf("expected exit status %d, got %d (stderr: %q)", code, tc.exitCode, tc.stderr.String())
	}
	return nil
}

func (tc *TestContext) theOutputIs(expected *godog.DocString) error {
	want := strings.TrimSpace(expected.Content) + "\n"
	if got := tc.stdout.String(); got != want {
		return fmt.Errorf("expected output %q, got %q", want, got)
	}
	return nil
}

func (tc *TestContext) noMatchesAreReported() error {
	if out := tc.stdout.String(); out != "" {
		return fmt.Errorf("expected no reports, got %q", out)
	}
	return nil
}

func (tc *TestContext) theObjectIsNeverFetched(key string) error {
	if slices.Contains(tc.store.Downloaded(), key) {
		return fmt.Errorf("object %q was fetched", key)
	}
	return nil
}

func (tc *TestContext) theUsageMessageIsPrinted() error {
	if !strings.Contains(tc.stderr.String(), cli.UsageLine) {
		return fmt.Errorf("expected usage message, got %q", tc.stderr.String())
	}
	return nil
}

func (tc *TestContext) theBucketIsNeverListed() error {
	if calls := tc.store.ListCalls(); calls != 0 {
		return fmt.Errorf("bucket was listed %d times", calls)
	}
	return nil
}

func (tc *TestContext) theErrorOutputMentions(text string) error {
	if !strings.Contains(tc.stderr.String(), text) {
		return fmt.Errorf("expected %q in error output, got %q", text, tc.stderr.String())
	}
	return nil
}
