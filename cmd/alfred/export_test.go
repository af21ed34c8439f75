package main

var RunWith = runWith
