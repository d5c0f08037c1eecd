// Package main runs the mesh-depth optimizer over a point cloud, a 2D mesh,
// and camera intrinsics read from files, and writes the reconstructed mesh as
// an ASCII PLY file.
package main

import (
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.viam.com/utils"

	"github.com/fieldrobotics/meshdepth/camera"
	"github.com/fieldrobotics/meshdepth/mesh"
	"github.com/fieldrobotics/meshdepth/meshopt"
	"github.com/fieldrobotics/meshdepth/pointcloud"
)

func main() {
	app := &cli.App{
		Name:  "meshopt",
		Usage: "reconstruct a 3D mesh from a 2D feature mesh and a sparse point cloud",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:     "cloud",
				Usage:    "point cloud in ASCII PCD format, camera frame",
				Required: true,
			},
			&cli.PathFlag{
				Name:     "mesh",
				Usage:    "2D triangulated mesh in JSON format",
				Required: true,
			},
			&cli.PathFlag{
				Name:     "intrinsics",
				Usage:    "pinhole camera intrinsics in JSON format",
				Required: true,
			},
			&cli.PathFlag{
				Name:  "out",
				Usage: "output PLY file for the reconstructed mesh",
				Value: "mesh.ply",
			},
			&cli.StringFlag{
				Name:  "solver",
				Usage: "solver strategy: disconnected, connected, or factorgraph",
				Value: "connected",
			},
			&cli.Float64Flag{
				Name:  "spring-sigma",
				Usage: "smoothness spring sigma for the factorgraph solver",
				Value: 0.1,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "verbose logging and uncertainty-colored vertices",
			},
		},
		Action: runOptimization,
	}
	if err := app.Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}

func newLogger(debug bool) (golog.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if !debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func runOptimization(c *cli.Context) error {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return err
	}

	solverType, err := meshopt.ParseSolverType(c.String("solver"))
	if err != nil {
		return err
	}
	cloud, err := pointcloud.NewFromPCDFile(c.Path("cloud"))
	if err != nil {
		return err
	}
	mesh2d, err := mesh.NewMesh2DFromJSONFile(c.Path("mesh"))
	if err != nil {
		return err
	}
	intrinsics, err := camera.NewPinholeCameraIntrinsicsFromJSONFile(c.Path("intrinsics"))
	if err != nil {
		return err
	}
	// The cloud is expected in the camera frame already.
	params := &camera.Parameters{
		Intrinsics:     intrinsics,
		BodyPoseCamera: camera.NewZeroPose(),
	}

	optimizer, err := meshopt.New(meshopt.Config{
		Solver:      solverType,
		Debug:       c.Bool("debug"),
		SpringSigma: c.Float64("spring-sigma"),
	}, logger)
	if err != nil {
		return err
	}
	out, err := optimizer.Optimize(cloud, mesh2d, params)
	if err != nil {
		return err
	}
	logger.Infow("optimization done",
		"matched_samples", out.MatchedSamples,
		"polygons", out.Mesh.NumPolygons(),
		"vertices", out.Mesh.NumVertices(),
		"skipped_triangles", len(out.SkippedTriangles),
		"dropped_polygons", len(out.DroppedPolygons))

	//nolint:gosec
	f, err := os.Create(c.Path("out"))
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	if err := mesh.WritePLY(out.Mesh, f); err != nil {
		return err
	}
	logger.Infow("wrote reconstructed mesh", "path", c.Path("out"))
	return nil
}
