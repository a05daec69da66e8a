// Command roicheck validates a product's ROI config file offline, without a
// running server — adapted from the teacher's cmd/check_cam connectivity
// probe into a config-correctness probe for this domain.
package main

import (
	"fmt"
	"os"

	"github.com/jnguyen/visual-aoi/internal/product"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: roicheck <rois_config_NAME.json>\n")
		os.Exit(2)
	}

	path := os.Args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roicheck: read %s: %v\n", path, err)
		os.Exit(1)
	}

	rois, err := product.DecodeROIFile(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roicheck: %s: decode failed: %v\n", path, err)
		os.Exit(1)
	}

	if len(rois) == 0 {
		fmt.Printf("%s: 0 rois (valid, empty config)\n", path)
		return
	}

	seen := map[int]bool{}
	failures := 0
	for _, r := range rois {
		if seen[r.ID] {
			fmt.Printf("roi %d: duplicate roi_id\n", r.ID)
			failures++
		}
		seen[r.ID] = true

		for _, verr := range roi.Validate(r, 0, 0) {
			fmt.Printf("roi %d: %v\n", r.ID, verr)
			failures++
		}
	}

	groups := roi.Groups(rois)
	needBarcode := roi.DevicesNeedingManualBarcode(rois)

	fmt.Printf("%s: %d rois, %d groups, devices needing manual barcode: %v\n", path, len(rois), len(groups), needBarcode)
	if failures > 0 {
		fmt.Printf("%d validation error(s)\n", failures)
		os.Exit(1)
	}
	fmt.Println("ok")
}
