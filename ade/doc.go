// Package ade imports the ADE20K 2017 on-disk annotation layout into
// the normalized dataset model.
//
// The expected layout is:
//
//	root/
//	  subset/
//	    [super_label/]
//	      name.jpg
//	      name_atr.txt
//	      name_seg.png
//	      name_parts_1.png
//	      name_parts_2.png
//
// name_atr.txt holds one instance per line with six '#'-separated
// columns: instance number, part level, occluded flag, raw name,
// class name, and a double-quoted comma-separated attribute list.
//
// name_seg.png encodes the whole-object masks: the class id of a pixel
// is (R/10)*256 + G and the blue channel carries the instance number.
// Class ids are therefore bounded by the 0-255 channel range on each
// component. name_parts_N.png carries the per-pixel part instance
// number for hierarchy depth N, in the blue channel for color rasters
// or the gray value for single-channel ones.
package ade
