/*
 * plot.go, part of gocrystal.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation, either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 */

//Package chemplot produces the figures of the analysis stages: the
//interatomic distance histogram and the simulated STEM image map.
package chemplot

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//DistanceHisto plots a histogram of the given interatomic distances,
//in Å, with the given number of bins, and saves it as plotname.png.
func DistanceHisto(distances []float64, bins int, title, plotname string) error {
	if len(distances) == 0 {
		return fmt.Errorf("chemplot: given no distances")
	}
	if bins <= 0 {
		bins = 16
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Distance (Å)"
	p.Y.Label.Text = "Count"
	h, err := plotter.NewHist(plotter.Values(distances), bins)
	if err != nil {
		return err
	}
	p.Add(h)
	return p.Save(5*vg.Inch, 5*vg.Inch, plotname+".png")
}

//imageGrid adapts a dense matrix to the heat map plotter. Row 0 of the
//matrix is drawn at the top, matching the scan order.
type imageGrid struct {
	m        *mat.Dense
	sampling float64 //Å per pixel
}

func (g imageGrid) Dims() (int, int) {
	r, c := g.m.Dims()
	return c, r
}

func (g imageGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g imageGrid) X(c int) float64 {
	return float64(c) * g.sampling
}

func (g imageGrid) Y(r int) float64 {
	return float64(r) * g.sampling
}

//ImageMap plots a simulated STEM image as a heat map with axes in Å
//(sampling is the scan step per pixel) and saves it as plotname.png.
func ImageMap(image *mat.Dense, sampling float64, title, plotname string) error {
	if image == nil {
		return fmt.Errorf("chemplot: given nil image")
	}
	if sampling <= 0 {
		sampling = 1
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "x (Å)"
	p.Y.Label.Text = "y (Å)"
	pal := moreland.BlackBody().Palette(255)
	h := plotter.NewHeatMap(imageGrid{m: image, sampling: sampling}, pal)
	p.Add(h)
	return p.Save(5*vg.Inch, 5*vg.Inch, plotname+".png")
}
