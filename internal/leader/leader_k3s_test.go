package leader_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/k3s"
	"go.opentelemetry.io/otel/trace/noop"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/retry"

	"github.com/jensholdgaard/auctiond/internal/chain"
	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/config"
	"github.com/jensholdgaard/auctiond/internal/leader"
)

// blockCounter is a chain.BlockHook that only remembers the last block.
type blockCounter struct {
	current atomic.Uint32
}

func (b *blockCounter) OnInitialize(_ context.Context, block uint32) int {
	b.current.Store(block)
	return 0
}

func (b *blockCounter) Snapshot(context.Context) error { return nil }

func (b *blockCounter) CurrentBlock() uint32 { return b.current.Load() }

// TestLeaderElection_K3s runs the block producer under a real Kubernetes
// Lease in a k3s testcontainer, then hands the lease to another replica and
// checks that block production stops. Skipped in short mode.
func TestLeaderElection_K3s(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping k3s integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Start a k3s container.
	ctr, err := k3s.Run(ctx, "rancher/k3s:v1.31.6-k3s1")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("starting k3s container: %v", err)
	}

	// Get kubeconfig from the container.
	kubeConfigYaml, err := ctr.GetKubeConfig(ctx)
	if err != nil {
		t.Fatalf("getting kubeconfig: %v", err)
	}

	restCfg, err := clientcmd.RESTConfigFromKubeConfig(kubeConfigYaml)
	if err != nil {
		t.Fatalf("building rest config: %v", err)
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		t.Fatalf("creating kubernetes client: %v", err)
	}

	// Override the ClientFactory so leader.Lead uses our test cluster.
	origFactory := leader.ClientFactory
	leader.ClientFactory = func() (kubernetes.Interface, error) {
		return clientset, nil
	}
	t.Cleanup(func() { leader.ClientFactory = origFactory })

	cfg := config.LeaderElectionConfig{
		Enabled:        true,
		LeaseName:      "auctiond-test-leader",
		LeaseNamespace: "default",
		LeaseDuration:  5 * time.Second,
		RenewDeadline:  3 * time.Second,
		RetryPeriod:    1 * time.Second,
	}

	logger := slog.Default()
	hook := &blockCounter{}
	producer := chain.NewProducer(hook, nil, config.ChainConfig{BlockTime: 50 * time.Millisecond}, clock.Real{}, logger, noop.NewTracerProvider())

	var produced, lost atomic.Bool
	errCh := make(chan error, 1)
	go func() {
		errCh <- leader.Lead(ctx, cfg, logger,
			func(ctx context.Context) {
				if err := producer.Run(ctx); err != nil {
					t.Errorf("producer.Run() error = %v", err)
				}
				produced.Store(true)
			},
			func() { lost.Store(true) },
		)
	}()

	// Wait until the leader has produced a few blocks.
	deadline := time.After(30 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for producer.Height() < 3 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for block production under leadership")
		case <-ticker.C:
		}
	}

	// Another replica takes over the lease.
	err = retry.RetryOnConflict(retry.DefaultRetry, func() error {
		leases := clientset.CoordinationV1().Leases(cfg.LeaseNamespace)
		lease, getErr := leases.Get(ctx, cfg.LeaseName, metav1.GetOptions{})
		if getErr != nil {
			return getErr
		}
		holder := "other-replica"
		duration := int32(60)
		now := metav1.NewMicroTime(time.Now())
		lease.Spec.HolderIdentity = &holder
		lease.Spec.LeaseDurationSeconds = &duration
		lease.Spec.AcquireTime = &now
		lease.Spec.RenewTime = &now
		_, updateErr := leases.Update(ctx, lease, metav1.UpdateOptions{})
		return updateErr
	})
	if err != nil {
		t.Fatalf("taking over lease: %v", err)
	}

	select {
	case runErr := <-errCh:
		if runErr != nil {
			t.Fatalf("leader.Lead() error = %v", runErr)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("timed out waiting for leadership to be lost")
	}

	if !lost.Load() {
		t.Error("onLost was not called")
	}
	if !produced.Load() {
		t.Error("block producer did not return after leadership was lost")
	}

	stoppedAt := producer.Height()
	time.Sleep(200 * time.Millisecond)
	if got := producer.Height(); got != stoppedAt {
		t.Errorf("blocks produced after losing the lease: height %d -> %d", stoppedAt, got)
	}
}
