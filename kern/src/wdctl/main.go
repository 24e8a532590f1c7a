// Command wdctl boots the wd driver against disk images attached to an
// emulated pair of IDE controllers and reports what the driver found.
//
//	wdctl --disk wd0=disk.img ls
//	wdctl --disk wd0=disk.img:1024/16/63 read wd0i 0 2
package main

import "flag"
import "fmt"
import "os"

import "github.com/golang/glog"
import "github.com/urfave/cli/v2"

import "wdkern/kern/src/limits"

func mkapp() *cli.App {
	return &cli.App{
		Name:  "wdctl",
		Usage: "probe disk images with the wd driver",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "disk",
				Aliases: []string{"d"},
				Usage:   "attach an image as `wdN=PATH[:C/H/S]`",
			},
			&cli.IntFlag{
				Name:  "cmd-retries",
				Value: limits.Wdlimit.Cmdretries,
				Usage: "polls while waiting for command completion",
			},
			&cli.IntFlag{
				Name:  "xfer-retries",
				Value: limits.Wdlimit.Xferretries,
				Usage: "polls while waiting for sector data",
			},
			&cli.DurationFlag{
				Name:  "poll",
				Value: limits.Wdlimit.Polldelay,
				Usage: "delay between status polls",
			},
			&cli.DurationFlag{
				Name:  "reset-delay",
				Value: limits.Wdlimit.Resetdelay,
				Usage: "time drives are held in soft reset",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "copy kernel messages to the log as they happen",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				flag.Set("logtostderr", "true")
				flag.CommandLine.Parse(nil)
			}
			return nil
		},
		Commands: []*cli.Command{
			lscmd,
			identcmd,
			readcmd,
			mbrcmd,
			dmesgcmd,
			statscmd,
		},
	}
}

func main() {
	err := mkapp().Run(os.Args)
	glog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wdctl: %v\n", err)
		os.Exit(1)
	}
}
