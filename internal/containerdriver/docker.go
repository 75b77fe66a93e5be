// Package containerdriver implements ports.EngineDriver against a live
// Docker Engine, the production adapter behind internal/dispatch.
package containerdriver

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/ports"
)

// Driver drives a local or remote Docker Engine over its HTTP API.
type Driver struct {
	cli client.APIClient
}

var _ ports.EngineDriver = (*Driver)(nil)

// New wraps an already-constructed Docker API client.
func New(cli client.APIClient) *Driver {
	return &Driver{cli: cli}
}

// NewFromEnvironment builds a client the way the docker CLI itself does,
// honouring DOCKER_HOST, DOCKER_TLS_VERIFY, and friends.
func NewFromEnvironment() (*Driver, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connecting to docker engine: %w", err)
	}
	return New(cli), nil
}

// imageRef returns the reference this driver will pull or, for a build,
// the tag it produces — the same value CreateContainer later consumes as
// Config.Image, so BuildImage and CreateContainer always agree on it.
func imageRef(c *task.Container) string {
	if c.Image.IsBuild() {
		return fmt.Sprintf("taskrun-local/%s:latest", c.Name)
	}
	return c.Image.PullRef
}

func (d *Driver) BuildImage(ctx context.Context, src task.ImageSource, containerName string, onProgress func(ports.BuildProgress)) error {
	tag := fmt.Sprintf("taskrun-local/%s:latest", containerName)

	buildCtx, err := tarDirectory(src.BuildContext)
	if err != nil {
		return fmt.Errorf("packing build context %s: %w", src.BuildContext, err)
	}

	resp, err := d.cli.ImageBuild(ctx, buildCtx, dockertypes.ImageBuildOptions{
		Tags:       []string{tag},
		Remove:     true,
		PullParent: false,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return streamProgress(resp.Body, onProgress)
}

func (d *Driver) PullImage(ctx context.Context, ref string, onProgress func(ports.BuildProgress)) error {
	rc, err := d.cli.ImagePull(ctx, ref, dockertypes.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()

	return streamProgress(rc, onProgress)
}

func (d *Driver) CreateNetwork(ctx context.Context, name string) error {
	_, err := d.cli.NetworkCreate(ctx, name, dockertypes.NetworkCreate{Driver: "bridge"})
	return err
}

func (d *Driver) CreateContainer(ctx context.Context, c *task.Container, networkName string) (string, error) {
	exposed, bindings, err := portConfig(c.Ports)
	if err != nil {
		return "", err
	}

	cfg := &container.Config{
		Image:        imageRef(c),
		Cmd:          c.Command,
		Env:          resolveEnv(c.Environment),
		WorkingDir:   c.WorkingDir,
		ExposedPorts: exposed,
	}

	hostCfg := &container.HostConfig{
		Binds:        volumeBinds(c.Volumes),
		PortBindings: bindings,
		NetworkMode:  container.NetworkMode(networkName),
	}
	if c.RunAsUser {
		hostCfg.UsernsMode = "host"
	}

	netCfg := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			networkName: {},
		},
	}

	created, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, c.Name)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (d *Driver) StartContainer(ctx context.Context, containerID string) error {
	return d.cli.ContainerStart(ctx, containerID, dockertypes.ContainerStartOptions{})
}

// WaitForHealthy polls the container's running state until StartPeriod has
// elapsed and it has stayed up for Retries consecutive checks spaced
// Interval apart, or returns an error the moment the container exits.
func (d *Driver) WaitForHealthy(ctx context.Context, containerID string, hc *task.HealthCheck) error {
	if hc == nil {
		return nil
	}

	interval := hc.Interval
	if interval <= 0 {
		interval = time.Second
	}

	if hc.StartPeriod > 0 {
		select {
		case <-time.After(hc.StartPeriod):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	retries := hc.Retries
	if retries <= 0 {
		retries = 1
	}

	for attempt := 0; attempt < retries; attempt++ {
		info, err := d.cli.ContainerInspect(ctx, containerID)
		if err != nil {
			return err
		}
		if !info.State.Running {
			return fmt.Errorf("container exited before becoming healthy (exit code %d)", info.State.ExitCode)
		}
		if attempt == retries-1 {
			return nil
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (d *Driver) RunContainer(ctx context.Context, containerID string) (int, error) {
	waitCh, errCh := d.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, err
	case result := <-waitCh:
		if result.Error != nil {
			return -1, fmt.Errorf("container wait: %s", result.Error.Message)
		}
		return int(result.StatusCode), nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func (d *Driver) StopContainer(ctx context.Context, containerID string) error {
	return d.cli.ContainerStop(ctx, containerID, container.StopOptions{})
}

func (d *Driver) RemoveContainer(ctx context.Context, containerID string) error {
	return d.cli.ContainerRemove(ctx, containerID, dockertypes.ContainerRemoveOptions{Force: true})
}

func (d *Driver) DeleteNetwork(ctx context.Context, name string) error {
	return d.cli.NetworkRemove(ctx, name)
}

func resolveEnv(env map[string]task.EnvValue) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		val := v.Literal
		if v.IsHostRef {
			val = os.Getenv(v.HostRef)
		}
		out = append(out, fmt.Sprintf("%s=%s", k, val))
	}
	return out
}

func volumeBinds(volumes []task.VolumeMount) []string {
	binds := make([]string, 0, len(volumes))
	for _, v := range volumes {
		if v.Mode != "" {
			binds = append(binds, fmt.Sprintf("%s:%s:%s", v.HostPath, v.ContainerPath, v.Mode))
			continue
		}
		binds = append(binds, fmt.Sprintf("%s:%s", v.HostPath, v.ContainerPath))
	}
	return binds
}

func portConfig(ports []task.PortMapping) (nat.PortSet, nat.PortMap, error) {
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for _, p := range ports {
		containerPort, err := nat.NewPort("tcp", fmt.Sprintf("%d", p.Container))
		if err != nil {
			return nil, nil, err
		}
		exposed[containerPort] = struct{}{}
		bindings[containerPort] = []nat.PortBinding{{HostPort: fmt.Sprintf("%d", p.Local)}}
	}
	return exposed, bindings, nil
}

// tarDirectory packs dir into an uncompressed tar stream, the form the
// Docker Engine API expects as a build context.
func tarDirectory(dir string) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// dockerProgressMessage is the subset of the Docker Engine's NDJSON build
// and pull progress stream this driver understands.
type dockerProgressMessage struct {
	Stream   string `json:"stream,omitempty"`
	Status   string `json:"status,omitempty"`
	Progress string `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`
}

func streamProgress(r io.Reader, onProgress func(ports.BuildProgress)) error {
	dec := json.NewDecoder(r)
	step := 0
	for {
		var msg dockerProgressMessage
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if msg.Error != "" {
			return fmt.Errorf("%s", msg.Error)
		}
		text := msg.Stream
		if text == "" {
			text = msg.Status
		}
		if text == "" {
			continue
		}
		if msg.Progress != "" {
			text = text + " " + msg.Progress
		}
		step++
		if onProgress != nil {
			onProgress(ports.BuildProgress{Step: step, Message: text})
		}
	}
}
